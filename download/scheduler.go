package download

import (
	"context"
	"runtime"

	"github.com/fwojciec/mangadl"
	"golang.org/x/sync/errgroup"
)

// MaxDefaultConcurrency caps DefaultConcurrency.
const MaxDefaultConcurrency = 8

// DefaultConcurrency returns the number of CPUs, capped at MaxDefaultConcurrency.
func DefaultConcurrency() int {
	return min(runtime.NumCPU(), MaxDefaultConcurrency)
}

// WorkFunc processes one chapter. It returns false when it abandoned the
// chapter because ctx was canceled; no outcome is reported in that case.
type WorkFunc func(ctx context.Context, ch *mangadl.Chapter) (mangadl.Outcome, bool)

// Scheduler runs chapter work on a bounded number of goroutines.
type Scheduler struct {
	// Concurrency is the maximum number of chapters processed at once.
	// Zero means DefaultConcurrency.
	Concurrency int
}

// Schedule runs work for each chapter and sends every reported outcome to
// outcomes, which must have room for len(chapters) values. No new chapter is
// started once ctx is done. Schedule returns after all started work has
// returned.
func (s *Scheduler) Schedule(ctx context.Context, chapters []*mangadl.Chapter, work WorkFunc, outcomes chan<- mangadl.Outcome) {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency()
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	for _, ch := range chapters {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if o, ok := work(ctx, ch); ok {
				outcomes <- o
			}
			return nil
		})
	}

	_ = g.Wait()
}
