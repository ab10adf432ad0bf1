package download_test

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/download"
	"github.com/stretchr/testify/assert"
)

func chapters(n int) []*mangadl.Chapter {
	var chs []*mangadl.Chapter
	for i := range n {
		chs = append(chs, newChapter(fmt.Sprintf("%04d", i)))
	}
	return chs
}

func drain(outcomes chan mangadl.Outcome) []mangadl.Outcome {
	close(outcomes)
	var got []mangadl.Outcome
	for o := range outcomes {
		got = append(got, o)
	}
	return got
}

func TestScheduler_Schedule(t *testing.T) {
	t.Parallel()

	t.Run("reports one outcome per chapter", func(t *testing.T) {
		t.Parallel()

		chs := chapters(20)
		outcomes := make(chan mangadl.Outcome, len(chs))
		s := &download.Scheduler{Concurrency: 4}

		s.Schedule(context.Background(), chs, func(_ context.Context, ch *mangadl.Chapter) (mangadl.Outcome, bool) {
			return mangadl.Outcome{Chapter: ch}, true
		}, outcomes)

		got := drain(outcomes)
		assert.Len(t, got, 20)
		seen := make(map[string]bool)
		for _, o := range got {
			seen[o.Chapter.Name] = true
		}
		assert.Len(t, seen, 20)
	})

	t.Run("never exceeds concurrency", func(t *testing.T) {
		t.Parallel()

		var active, peak atomic.Int32
		chs := chapters(12)
		outcomes := make(chan mangadl.Outcome, len(chs))
		s := &download.Scheduler{Concurrency: 3}

		s.Schedule(context.Background(), chs, func(_ context.Context, ch *mangadl.Chapter) (mangadl.Outcome, bool) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return mangadl.Outcome{Chapter: ch}, true
		}, outcomes)

		assert.LessOrEqual(t, peak.Load(), int32(3))
		assert.Equal(t, int32(3), peak.Load(), "pool should be saturated")
		assert.Len(t, drain(outcomes), 12)
	})

	t.Run("abandoned work reports nothing", func(t *testing.T) {
		t.Parallel()

		chs := chapters(4)
		outcomes := make(chan mangadl.Outcome, len(chs))
		s := &download.Scheduler{Concurrency: 2}

		s.Schedule(context.Background(), chs, func(_ context.Context, ch *mangadl.Chapter) (mangadl.Outcome, bool) {
			return mangadl.Outcome{Chapter: ch}, ch.Name != "0001"
		}, outcomes)

		assert.Len(t, drain(outcomes), 3)
	})

	t.Run("stops dispatching after cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var started atomic.Int32
		chs := chapters(10)
		outcomes := make(chan mangadl.Outcome, len(chs))
		s := &download.Scheduler{Concurrency: 1}

		s.Schedule(ctx, chs, func(ctx context.Context, ch *mangadl.Chapter) (mangadl.Outcome, bool) {
			if started.Add(1) == 2 {
				cancel()
			}
			if ctx.Err() != nil {
				return mangadl.Outcome{}, false
			}
			return mangadl.Outcome{Chapter: ch}, true
		}, outcomes)

		assert.LessOrEqual(t, started.Load(), int32(3))
		assert.Len(t, drain(outcomes), 1)
	})

	t.Run("waits for running work", func(t *testing.T) {
		t.Parallel()

		var finished atomic.Int32
		chs := chapters(3)
		outcomes := make(chan mangadl.Outcome, len(chs))
		s := &download.Scheduler{Concurrency: 3}

		s.Schedule(context.Background(), chs, func(_ context.Context, ch *mangadl.Chapter) (mangadl.Outcome, bool) {
			time.Sleep(20 * time.Millisecond)
			finished.Add(1)
			return mangadl.Outcome{Chapter: ch}, true
		}, outcomes)

		assert.Equal(t, int32(3), finished.Load())
	})
}

func TestDefaultConcurrency(t *testing.T) {
	t.Parallel()

	got := download.DefaultConcurrency()

	assert.Equal(t, min(runtime.NumCPU(), download.MaxDefaultConcurrency), got)
	assert.GreaterOrEqual(t, got, 1)
}
