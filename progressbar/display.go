// Package progressbar draws chapter progress as a terminal progress bar.
package progressbar

import (
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/mangadl"
	"github.com/schollz/progressbar/v3"
)

var _ mangadl.ProgressDisplay = (*Display)(nil)

// Display is a mangadl.ProgressDisplay backed by schollz/progressbar. The
// bar is created on the first update, once the total is known.
type Display struct {
	w     io.Writer
	title string
	bar   *progressbar.ProgressBar
}

// NewDisplay returns a Display writing to w.
func NewDisplay(w io.Writer, title string) mangadl.ProgressDisplay {
	return &Display{w: w, title: title}
}

func (d *Display) Update(completed, total int) {
	if d.bar == nil {
		d.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(d.w),
			progressbar.OptionSetDescription("- "+d.title),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("chapters"),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(d.w) }),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = d.bar.Set(completed)
}

// Close finishes the bar. An interrupted run leaves it where it stopped.
func (d *Display) Close() error {
	if d.bar == nil {
		return nil
	}
	if d.bar.IsFinished() {
		return nil
	}
	return d.bar.Exit()
}
