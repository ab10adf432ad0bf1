// Package fs maps chapters onto the local filesystem.
package fs

import (
	"path/filepath"
	"strings"

	"github.com/fwojciec/mangadl"
)

// Layout computes where chapter files live under a root directory:
//
//	<root>/<website>/<series>/<chapter>/<part>.png
//	<root>/<website>/<series>/<chapter>.cbz
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at root.
func NewLayout(root string) *Layout {
	return &Layout{Root: root}
}

// SeriesDir returns the directory holding a series' chapters and archives.
func (l *Layout) SeriesDir(website, series string) string {
	return filepath.Join(l.Root, SanitizeName(website), SanitizeName(series))
}

// ChapterDir returns the working directory for a chapter's pages.
func (l *Layout) ChapterDir(ch *mangadl.Chapter) string {
	return filepath.Join(l.SeriesDir(ch.Website, ch.Series), SanitizeName(ch.Name))
}

// ArchivePath returns the path of a chapter's archive.
func (l *Layout) ArchivePath(ch *mangadl.Chapter) string {
	return l.ChapterDir(ch) + mangadl.ArchiveExt
}

// PartPath returns the path a page is materialized to.
func (l *Layout) PartPath(ch *mangadl.Chapter, part mangadl.Part) string {
	return filepath.Join(l.ChapterDir(ch), SanitizeName(part.ID)+mangadl.PageExt)
}

var unsafeChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\x00", "",
)

// SanitizeName turns a name into a single, portable path segment.
func SanitizeName(name string) string {
	s := unsafeChars.Replace(name)
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ". ")
	if s == "" || s == ".." {
		return "_"
	}
	return s
}
