package download

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/fs"
)

// Repacker archives chapter directories that are already on disk.
// Each directory Src/<chapter> becomes Dst/<chapter>.cbz; sources are left
// untouched and existing archives are skipped.
type Repacker struct {
	Packager    mangadl.Packager
	Src         string
	Dst         string
	Concurrency int

	Out     io.Writer
	Display DisplayFunc
}

// Run packs every chapter, reporting progress under title.
func (r *Repacker) Run(ctx context.Context, title string, chapters []*mangadl.Chapter) (*Summary, error) {
	if err := checkChapters(chapters, r.archivePath); err != nil {
		return nil, err
	}
	return run(ctx, newReporter(r.Out, r.Display, title), r.Concurrency, chapters, r.Repack)
}

// Repack archives a single chapter directory.
func (r *Repacker) Repack(ctx context.Context, ch *mangadl.Chapter) (mangadl.Outcome, bool) {
	if ctx.Err() != nil {
		return mangadl.Outcome{}, false
	}

	archive := r.archivePath(ch)
	if fs.Exists(archive) {
		return mangadl.Outcome{Chapter: ch, Skipped: true}, true
	}

	pages, err := fs.Files(filepath.Join(r.Src, ch.Name))
	if err != nil {
		return failure(ch, err), true
	}
	if len(pages) == 0 {
		return failure(ch, mangadl.Errorf(mangadl.ENOTFOUND, "no pages found")), true
	}

	if err := r.Packager.Pack(ctx, ch, archive, pages); err != nil {
		_ = os.Remove(archive)
		if ctx.Err() != nil {
			return mangadl.Outcome{}, false
		}
		return failure(ch, err), true
	}

	if !fs.Exists(archive) {
		return failure(ch, mangadl.Errorf(mangadl.EINTERNAL, "archive missing after packaging")), true
	}
	return mangadl.Outcome{Chapter: ch}, true
}

func (r *Repacker) archivePath(ch *mangadl.Chapter) string {
	return filepath.Join(r.Dst, fs.SanitizeName(ch.Name)+mangadl.ArchiveExt)
}
