package mangadl

// Outcome is the result of processing one chapter.
type Outcome struct {
	Chapter *Chapter

	// Reason is empty on success and describes the failure otherwise.
	Reason string

	// Skipped is set when the chapter archive already existed.
	Skipped bool
}

// Failed reports whether the chapter could not be archived.
func (o Outcome) Failed() bool {
	return o.Reason != ""
}

// ProgressDisplay renders the running count of processed chapters.
type ProgressDisplay interface {
	// Update is called with the number of chapters processed so far.
	Update(completed, total int)

	// Close finishes the display, leaving the last state visible.
	Close() error
}
