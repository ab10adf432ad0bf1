package download_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/download"
	"github.com/fwojciec/mangadl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Report(t *testing.T) {
	t.Parallel()

	t.Run("prints running count and clean verdict", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		r := &download.Reporter{Out: &out, Display: download.NewTextDisplay(&out, "Berserk")}
		outcomes := make(chan mangadl.Outcome, 2)
		outcomes <- mangadl.Outcome{Chapter: newChapter("1")}
		outcomes <- mangadl.Outcome{Chapter: newChapter("2"), Skipped: true}

		summary := r.Report(context.Background(), 2, outcomes)

		assert.Equal(t, 2, summary.Completed)
		assert.False(t, summary.Interrupted)
		assert.Equal(t,
			"\r- Berserk: 0 / 2 completed.\r- Berserk: 1 / 2 completed.\r- Berserk: 2 / 2 completed.\n"+
				"No chapter has failed.\n",
			out.String())
	})

	t.Run("lists failures with reasons", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		r := &download.Reporter{Out: &out, Display: download.NewTextDisplay(&out, "Berserk")}
		outcomes := make(chan mangadl.Outcome, 3)
		outcomes <- mangadl.Outcome{Chapter: newChapter("1")}
		outcomes <- mangadl.Outcome{Chapter: newChapter("2"), Reason: "website is protected"}
		outcomes <- mangadl.Outcome{Chapter: newChapter("3"), Reason: "page 004: HTTP 500"}

		summary := r.Report(context.Background(), 3, outcomes)

		require.Len(t, summary.Failed, 2)
		assert.Contains(t, out.String(), "The following chapters have failed.\n2: website is protected\n3: page 004: HTTP 500\n")
		assert.NotContains(t, out.String(), download.MsgNoFailures)
	})

	t.Run("abort prints termination message only", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		r := &download.Reporter{Out: &out, Display: download.NewTextDisplay(&out, "Berserk")}
		outcomes := make(chan mangadl.Outcome, 3)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		summary := r.Report(ctx, 3, outcomes)

		assert.True(t, summary.Interrupted)
		assert.Equal(t, 0, summary.Completed)
		assert.Contains(t, out.String(), download.MsgInterrupted)
		assert.NotContains(t, out.String(), download.MsgNoFailures)
		assert.NotContains(t, out.String(), download.MsgFailures)
	})

	t.Run("stops when outcomes close early", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		r := &download.Reporter{Out: &out, Display: download.NewTextDisplay(&out, "x")}
		outcomes := make(chan mangadl.Outcome, 1)
		outcomes <- mangadl.Outcome{Chapter: newChapter("1")}
		close(outcomes)

		summary := r.Report(context.Background(), 5, outcomes)

		assert.Equal(t, 1, summary.Completed)
		assert.Contains(t, out.String(), download.MsgNoFailures)
	})

	t.Run("drives custom display", func(t *testing.T) {
		t.Parallel()

		var updates [][2]int
		closed := false
		display := &mock.ProgressDisplay{
			UpdateFn: func(completed, total int) {
				updates = append(updates, [2]int{completed, total})
			},
			CloseFn: func() error {
				closed = true
				return nil
			},
		}
		r := &download.Reporter{Out: &bytes.Buffer{}, Display: display}
		outcomes := make(chan mangadl.Outcome, 1)
		outcomes <- mangadl.Outcome{Chapter: newChapter("1")}

		r.Report(context.Background(), 1, outcomes)

		assert.Equal(t, [][2]int{{0, 1}, {1, 1}}, updates)
		assert.True(t, closed)
	})
}
