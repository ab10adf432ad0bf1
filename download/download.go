// Package download runs the chapter download pipeline: a bounded pool of
// chapter workers, each fetching its pages and packing them into an archive,
// with a reporter tallying outcomes and a controller for cooperative
// cancellation.
package download

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/fs"
)

// Downloader downloads chapters and archives each one into a .cbz file.
type Downloader struct {
	Sources      mangadl.SourceRegistry
	Materializer mangadl.Materializer
	Packager     mangadl.Packager
	Layout       *fs.Layout

	// History, when set, receives a record for every chapter outcome.
	History mangadl.HistoryService

	Logger      *slog.Logger
	Concurrency int

	// Out receives progress and the final report. Display defaults to
	// NewTextDisplay.
	Out     io.Writer
	Display DisplayFunc
}

// Run downloads chapters and reports progress under title. It returns once
// every started chapter worker has returned. When ctx is canceled the
// returned error is its cause, ErrInterrupted for a user interruption.
func (d *Downloader) Run(ctx context.Context, title string, chapters []*mangadl.Chapter) (*Summary, error) {
	if err := checkChapters(chapters, d.Layout.ArchivePath); err != nil {
		return nil, err
	}
	return run(ctx, d.reporter(title), d.Concurrency, chapters, d.process)
}

// ProcessChapter takes one chapter from its archive check to a verified
// archive. It returns false, without an outcome, when ctx is canceled before
// the archive is complete; pages already on disk are kept for the next run.
func (d *Downloader) ProcessChapter(ctx context.Context, ch *mangadl.Chapter) (mangadl.Outcome, bool) {
	if ctx.Err() != nil {
		return mangadl.Outcome{}, false
	}

	archive := d.Layout.ArchivePath(ch)
	if fs.Exists(archive) {
		return mangadl.Outcome{Chapter: ch, Skipped: true}, true
	}

	src := d.Sources.Get(ch.Website)
	if src == nil {
		return failure(ch, mangadl.Errorf(mangadl.ENOTFOUND, "unknown website %q", ch.Website)), true
	}

	dir := d.Layout.ChapterDir(ch)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return failure(ch, err), true
	}

	pages, err := d.fetchParts(ctx, src, ch)
	if ctx.Err() != nil {
		return mangadl.Outcome{}, false
	} else if err != nil {
		return failure(ch, err), true
	}
	if len(pages) == 0 {
		_ = fs.RemoveIfEmpty(dir)
		return failure(ch, mangadl.Errorf(mangadl.ENOTFOUND, "no pages found")), true
	}

	if err := d.Packager.Pack(ctx, ch, archive, pages); err != nil {
		_ = os.Remove(archive)
		if ctx.Err() != nil {
			return mangadl.Outcome{}, false
		}
		return failure(ch, err), true
	}

	if err := fs.RemoveFiles(pages); err != nil {
		d.logger().Warn("remove pages", "chapter", ch.Name, "err", err)
	}
	if err := fs.RemoveIfEmpty(dir); err != nil {
		d.logger().Warn("remove chapter dir", "dir", dir, "err", err)
	}

	if !fs.Exists(archive) {
		return failure(ch, mangadl.Errorf(mangadl.EINTERNAL, "archive missing after packaging")), true
	}
	return mangadl.Outcome{Chapter: ch}, true
}

// fetchParts materializes the chapter's pages and returns their paths in the
// order the source yielded them.
func (d *Downloader) fetchParts(ctx context.Context, src mangadl.Source, ch *mangadl.Chapter) ([]string, error) {
	var pages []string
	for part, err := range src.Parts(ctx, ch) {
		if err != nil {
			return pages, err
		}

		path := d.Layout.PartPath(ch, part)
		if err := d.Materializer.Materialize(ctx, part.URL, path); err != nil {
			return pages, mangadl.Errorf(mangadl.ErrorCode(err), "page %s: %s", part.ID, mangadl.ErrorMessage(err))
		}
		pages = append(pages, path)

		if err := ctx.Err(); err != nil {
			return pages, err
		}
	}
	return pages, nil
}

// process runs ProcessChapter and records the outcome in the history.
func (d *Downloader) process(ctx context.Context, ch *mangadl.Chapter) (mangadl.Outcome, bool) {
	o, ok := d.ProcessChapter(ctx, ch)
	if !ok {
		d.logger().Debug("chapter aborted", "chapter", ch.Name)
		return o, false
	}

	if o.Failed() {
		d.logger().Warn("chapter failed", "chapter", ch.Name, "reason", o.Reason)
	} else {
		d.logger().Debug("chapter done", "chapter", ch.Name, "skipped", o.Skipped)
	}

	if d.History != nil {
		rec := mangadl.NewRecord(o, d.Layout.ArchivePath(ch))
		if err := d.History.CreateRecord(context.WithoutCancel(ctx), rec); err != nil {
			d.logger().Warn("record history", "chapter", ch.Name, "err", err)
		}
	}
	return o, true
}

func (d *Downloader) reporter(title string) *Reporter {
	return newReporter(d.Out, d.Display, title)
}

func (d *Downloader) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

func newReporter(out io.Writer, display DisplayFunc, title string) *Reporter {
	if out == nil {
		out = io.Discard
	}
	if display == nil {
		display = NewTextDisplay
	}
	return &Reporter{Out: out, Display: display(out, title)}
}

// run wires the scheduler to a reporter and waits for both.
func run(ctx context.Context, reporter *Reporter, concurrency int, chapters []*mangadl.Chapter, work WorkFunc) (*Summary, error) {
	outcomes := make(chan mangadl.Outcome, len(chapters))

	done := make(chan *Summary, 1)
	go func() {
		done <- reporter.Report(ctx, len(chapters), outcomes)
	}()

	s := &Scheduler{Concurrency: concurrency}
	s.Schedule(ctx, chapters, work, outcomes)
	close(outcomes)

	summary := <-done
	if summary.Interrupted {
		return summary, context.Cause(ctx)
	}
	return summary, nil
}

// checkChapters validates chapters and rejects two chapters sharing an archive.
func checkChapters(chapters []*mangadl.Chapter, archivePath func(*mangadl.Chapter) string) error {
	seen := make(map[string]bool, len(chapters))
	for _, ch := range chapters {
		if err := ch.Validate(); err != nil {
			return err
		}
		p := archivePath(ch)
		if seen[p] {
			return mangadl.Errorf(mangadl.EINVALID, "duplicate chapter %q", ch.Name)
		}
		seen[p] = true
	}
	return nil
}

func failure(ch *mangadl.Chapter, err error) mangadl.Outcome {
	return mangadl.Outcome{Chapter: ch, Reason: mangadl.ErrorMessage(err)}
}
