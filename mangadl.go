// Package mangadl downloads manga chapters from reading sites and archives
// each chapter into a single .cbz file once all of its pages are on disk.
// Runs are resumable: a finished archive marks its chapter as done, and
// pages fetched before an interruption are reused on the next run.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, rod/).
package mangadl
