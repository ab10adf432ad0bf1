package download

import (
	"context"
	"fmt"
	"io"

	"github.com/fwojciec/mangadl"
)

// Messages printed at the end of a run.
const (
	MsgNoFailures  = "No chapter has failed."
	MsgFailures    = "The following chapters have failed."
	MsgInterrupted = "Program terminated, re-run to resume."
)

// Summary is the tally of a run.
type Summary struct {
	Total       int
	Completed   int
	Failed      []mangadl.Outcome
	Interrupted bool
}

// Reporter consumes chapter outcomes, keeps the progress display current and
// prints the final verdict.
type Reporter struct {
	Out     io.Writer
	Display mangadl.ProgressDisplay
}

// Report reads outcomes until total have arrived, outcomes is closed or ctx
// is done. A run is interrupted only when ctx is done before every outcome
// arrived; it ends with MsgInterrupted and no failure list.
func (r *Reporter) Report(ctx context.Context, total int, outcomes <-chan mangadl.Outcome) *Summary {
	summary := &Summary{Total: total}
	r.Display.Update(0, total)

loop:
	for summary.Completed < total {
		select {
		case <-ctx.Done():
			break loop
		case o, ok := <-outcomes:
			if !ok {
				break loop
			}
			summary.Completed++
			if o.Failed() {
				summary.Failed = append(summary.Failed, o)
			}
			r.Display.Update(summary.Completed, total)
		}
	}
	_ = r.Display.Close()
	summary.Interrupted = summary.Completed < total && ctx.Err() != nil

	switch {
	case summary.Interrupted:
		fmt.Fprintln(r.Out, MsgInterrupted)
	case len(summary.Failed) == 0:
		fmt.Fprintln(r.Out, MsgNoFailures)
	default:
		fmt.Fprintln(r.Out, MsgFailures)
		for _, o := range summary.Failed {
			fmt.Fprintf(r.Out, "%s: %s\n", o.Chapter.Name, o.Reason)
		}
	}
	return summary
}

// DisplayFunc creates the progress display of a run titled title.
type DisplayFunc func(w io.Writer, title string) mangadl.ProgressDisplay

var _ mangadl.ProgressDisplay = (*TextDisplay)(nil)

// TextDisplay redraws a single "- <title>: <i> / <n> completed." line.
type TextDisplay struct {
	w     io.Writer
	title string
}

// NewTextDisplay returns a TextDisplay. It satisfies DisplayFunc.
func NewTextDisplay(w io.Writer, title string) mangadl.ProgressDisplay {
	return &TextDisplay{w: w, title: title}
}

func (d *TextDisplay) Update(completed, total int) {
	fmt.Fprintf(d.w, "\r- %s: %d / %d completed.", d.title, completed, total)
}

func (d *TextDisplay) Close() error {
	_, err := fmt.Fprintln(d.w)
	return err
}
