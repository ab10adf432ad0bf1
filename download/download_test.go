package download_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/cbz"
	"github.com/fwojciec/mangadl/download"
	"github.com/fwojciec/mangadl/fs"
	mangadlhttp "github.com/fwojciec/mangadl/http"
	"github.com/fwojciec/mangadl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChapter(name string) *mangadl.Chapter {
	return &mangadl.Chapter{Website: "test", Series: "Series", Name: name}
}

func registryOf(src mangadl.Source) *mock.SourceRegistry {
	return &mock.SourceRegistry{
		GetFn: func(name string) mangadl.Source {
			if name == "test" {
				return src
			}
			return nil
		},
	}
}

// pagedSource yields n parts per chapter with ids starting at 001.
func pagedSource(n int) *mock.Source {
	return &mock.Source{
		PartsFn: func(_ context.Context, ch *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
			var parts []mangadl.Part
			for i := 1; i <= n; i++ {
				parts = append(parts, mangadl.Part{ID: mangadl.PartID(i), URL: ch.Name + "/" + mangadl.PartID(i)})
			}
			return mock.Parts(parts, nil)
		},
	}
}

// writingMaterializer stores the url as the file content.
func writingMaterializer() *mock.Materializer {
	return &mock.Materializer{
		MaterializeFn: func(_ context.Context, url, path string) error {
			return os.WriteFile(path, []byte(url), 0644)
		},
	}
}

func archiveEntries(t *testing.T, path string) []string {
	t.Helper()
	names, err := cbz.Entries(path)
	require.NoError(t, err)
	return names
}

func TestDownloader_ProcessChapter(t *testing.T) {
	t.Parallel()

	t.Run("archives pages in order and removes working files", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(3)),
			Materializer: writingMaterializer(),
			Packager:     cbz.NewPackager(false),
			Layout:       layout,
		}
		ch := newChapter("0001")

		o, ok := d.ProcessChapter(context.Background(), ch)

		require.True(t, ok)
		assert.False(t, o.Failed())
		assert.False(t, o.Skipped)
		assert.Equal(t, []string{"001.png", "002.png", "003.png"}, archiveEntries(t, layout.ArchivePath(ch)))
		assert.NoDirExists(t, layout.ChapterDir(ch))
	})

	t.Run("keeps source order past 999 pages", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(1001)),
			Materializer: writingMaterializer(),
			Packager:     cbz.NewPackager(false),
			Layout:       layout,
		}
		ch := newChapter("0001")

		o, ok := d.ProcessChapter(context.Background(), ch)

		require.True(t, ok)
		require.False(t, o.Failed())
		entries := archiveEntries(t, layout.ArchivePath(ch))
		require.Len(t, entries, 1001)
		assert.Equal(t, []string{"999.png", "1000.png", "1001.png"}, entries[998:])
		assert.Equal(t, "100.png", entries[99])
	})

	t.Run("existing archive short-circuits without fetching", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		ch := newChapter("0001")
		require.NoError(t, os.MkdirAll(layout.SeriesDir("test", "Series"), 0755))
		require.NoError(t, os.WriteFile(layout.ArchivePath(ch), []byte("done"), 0644))
		d := &download.Downloader{
			Sources:      registryOf(&mock.Source{}), // PartsFn unset: must not be called
			Materializer: &mock.Materializer{},
			Packager:     &mock.Packager{},
			Layout:       layout,
		}

		o, ok := d.ProcessChapter(context.Background(), ch)

		require.True(t, ok)
		assert.False(t, o.Failed())
		assert.True(t, o.Skipped)
	})

	t.Run("sentinel fails chapter and keeps fetched pages", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		src := &mock.Source{
			PartsFn: func(_ context.Context, _ *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
				return mock.Parts(
					[]mangadl.Part{{ID: "001", URL: "u1"}},
					mangadl.Errorf(mangadl.EUNAVAILABLE, "website is protected"),
				)
			},
		}
		d := &download.Downloader{
			Sources:      registryOf(src),
			Materializer: writingMaterializer(),
			Packager:     cbz.NewPackager(false),
			Layout:       layout,
		}
		ch := newChapter("0001")

		o, ok := d.ProcessChapter(context.Background(), ch)

		require.True(t, ok)
		assert.Equal(t, "website is protected", o.Reason)
		assert.NoFileExists(t, layout.ArchivePath(ch))
		assert.FileExists(t, layout.PartPath(ch, mangadl.Part{ID: "001"}))
	})

	t.Run("immediate sentinel leaves empty working dir", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		src := &mock.Source{
			PartsFn: func(_ context.Context, _ *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
				return mock.Parts(nil, mangadl.Errorf(mangadl.EUNAVAILABLE, "website cannot be reached"))
			},
		}
		d := &download.Downloader{
			Sources:      registryOf(src),
			Materializer: &mock.Materializer{},
			Packager:     &mock.Packager{},
			Layout:       layout,
		}
		ch := newChapter("0001")

		o, ok := d.ProcessChapter(context.Background(), ch)

		require.True(t, ok)
		assert.Equal(t, "website cannot be reached", o.Reason)
		assert.NoFileExists(t, layout.ArchivePath(ch))
		files, err := fs.Files(layout.ChapterDir(ch))
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("materializer error names the failing page", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		m := &mock.Materializer{
			MaterializeFn: func(_ context.Context, url, path string) error {
				if filepath.Base(path) == "002.png" {
					return mangadl.Errorf(mangadl.EUNAVAILABLE, "HTTP 503 for %s", url)
				}
				return os.WriteFile(path, []byte(url), 0644)
			},
		}
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(3)),
			Materializer: m,
			Packager:     cbz.NewPackager(false),
			Layout:       layout,
		}
		ch := newChapter("0001")

		o, ok := d.ProcessChapter(context.Background(), ch)

		require.True(t, ok)
		assert.Equal(t, "page 002: HTTP 503 for 0001/002", o.Reason)
		assert.FileExists(t, layout.PartPath(ch, mangadl.Part{ID: "001"}))
		assert.NoFileExists(t, layout.ArchivePath(ch))
	})

	t.Run("chapter without pages fails and removes empty dir", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(0)),
			Materializer: &mock.Materializer{},
			Packager:     &mock.Packager{},
			Layout:       layout,
		}
		ch := newChapter("0001")

		o, ok := d.ProcessChapter(context.Background(), ch)

		require.True(t, ok)
		assert.Equal(t, "no pages found", o.Reason)
		assert.NoDirExists(t, layout.ChapterDir(ch))
	})

	t.Run("unknown website fails", func(t *testing.T) {
		t.Parallel()

		d := &download.Downloader{
			Sources: registryOf(nil),
			Layout:  fs.NewLayout(t.TempDir()),
		}
		ch := &mangadl.Chapter{Website: "nowhere", Series: "S", Name: "1"}

		o, ok := d.ProcessChapter(context.Background(), ch)

		require.True(t, ok)
		assert.Equal(t, `unknown website "nowhere"`, o.Reason)
	})

	t.Run("missing archive after packaging fails", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(1)),
			Materializer: writingMaterializer(),
			Packager: &mock.Packager{
				PackFn: func(context.Context, *mangadl.Chapter, string, []string) error {
					return nil
				},
			},
			Layout: layout,
		}

		o, ok := d.ProcessChapter(context.Background(), newChapter("0001"))

		require.True(t, ok)
		assert.Equal(t, "archive missing after packaging", o.Reason)
	})

	t.Run("packaging error fails chapter and keeps pages", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(2)),
			Materializer: writingMaterializer(),
			Packager: &mock.Packager{
				PackFn: func(context.Context, *mangadl.Chapter, string, []string) error {
					return errors.New("disk full")
				},
			},
			Layout: layout,
		}
		ch := newChapter("0001")

		o, ok := d.ProcessChapter(context.Background(), ch)

		require.True(t, ok)
		assert.Equal(t, "disk full", o.Reason)
		assert.FileExists(t, layout.PartPath(ch, mangadl.Part{ID: "002"}))
	})

	t.Run("canceled context emits no outcome", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d := &download.Downloader{Layout: fs.NewLayout(t.TempDir())}

		_, ok := d.ProcessChapter(ctx, newChapter("0001"))

		assert.False(t, ok)
	})

	t.Run("cancellation between parts keeps fetched pages", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		m := &mock.Materializer{
			MaterializeFn: func(_ context.Context, url, path string) error {
				if filepath.Base(path) == "002.png" {
					cancel()
				}
				return os.WriteFile(path, []byte(url), 0644)
			},
		}
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(5)),
			Materializer: m,
			Packager:     &mock.Packager{},
			Layout:       layout,
		}
		ch := newChapter("0001")

		_, ok := d.ProcessChapter(ctx, ch)

		assert.False(t, ok)
		files, err := fs.Files(layout.ChapterDir(ch))
		require.NoError(t, err)
		assert.Len(t, files, 2)
		assert.NoFileExists(t, layout.ArchivePath(ch))
	})

	t.Run("cancellation during packaging leaves no archive", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		packager := &mock.Packager{
			PackFn: func(ctx context.Context, ch *mangadl.Chapter, dst string, pages []string) error {
				cancel()
				return cbz.NewPackager(false).Pack(ctx, ch, dst, pages)
			},
		}
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(3)),
			Materializer: writingMaterializer(),
			Packager:     packager,
			Layout:       layout,
		}
		ch := newChapter("0001")

		_, ok := d.ProcessChapter(ctx, ch)

		assert.False(t, ok)
		assert.NoFileExists(t, layout.ArchivePath(ch))
		files, err := fs.Files(layout.ChapterDir(ch))
		require.NoError(t, err)
		assert.Len(t, files, 3, "pages survive for the next run")
	})
}

func TestDownloader_Run(t *testing.T) {
	t.Parallel()

	t.Run("archives every chapter and reports no failures", func(t *testing.T) {
		t.Parallel()

		// Given five chapters of three pages and two workers
		layout := fs.NewLayout(t.TempDir())
		var out bytes.Buffer
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(3)),
			Materializer: writingMaterializer(),
			Packager:     cbz.NewPackager(false),
			Layout:       layout,
			Concurrency:  2,
			Out:          &out,
		}
		var chapters []*mangadl.Chapter
		for i := 1; i <= 5; i++ {
			chapters = append(chapters, newChapter(fmt.Sprintf("%04d", i)))
		}

		// When
		summary, err := d.Run(context.Background(), "Series", chapters)

		// Then
		require.NoError(t, err)
		assert.Equal(t, 5, summary.Completed)
		assert.Empty(t, summary.Failed)
		for _, ch := range chapters {
			assert.Equal(t, []string{"001.png", "002.png", "003.png"}, archiveEntries(t, layout.ArchivePath(ch)))
			assert.NoDirExists(t, layout.ChapterDir(ch))
		}
		assert.Contains(t, out.String(), "- Series: 0 / 5 completed.")
		assert.Contains(t, out.String(), "- Series: 5 / 5 completed.")
		assert.Contains(t, out.String(), download.MsgNoFailures)
	})

	t.Run("interrupt after the last outcome is not an interruption", func(t *testing.T) {
		t.Parallel()

		// Given a run canceled as soon as the last chapter is reported
		ctrl := download.NewController(context.Background())
		var out bytes.Buffer
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(1)),
			Materializer: writingMaterializer(),
			Packager:     cbz.NewPackager(false),
			Layout:       fs.NewLayout(t.TempDir()),
			Out:          &out,
			Display: func(io.Writer, string) mangadl.ProgressDisplay {
				return &mock.ProgressDisplay{
					UpdateFn: func(completed, total int) {
						if completed == total {
							ctrl.Interrupt()
						}
					},
					CloseFn: func() error { return nil },
				}
			},
		}

		// When
		summary, err := d.Run(ctrl.Context(), "Series", []*mangadl.Chapter{newChapter("0001"), newChapter("0002")})

		// Then the run ends with the verdict already printed
		require.NoError(t, err)
		assert.False(t, summary.Interrupted)
		assert.Equal(t, 2, summary.Completed)
		assert.Contains(t, out.String(), download.MsgNoFailures)
		assert.NotContains(t, out.String(), download.MsgInterrupted)
	})

	t.Run("lists failed chapters", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		src := &mock.Source{
			PartsFn: func(_ context.Context, ch *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
				if ch.Name == "0002" {
					return mock.Parts(nil, mangadl.Errorf(mangadl.EUNAVAILABLE, "website is protected"))
				}
				return mock.Parts([]mangadl.Part{{ID: "001", URL: "u"}}, nil)
			},
		}
		var out bytes.Buffer
		d := &download.Downloader{
			Sources:      registryOf(src),
			Materializer: writingMaterializer(),
			Packager:     cbz.NewPackager(false),
			Layout:       layout,
			Concurrency:  2,
			Out:          &out,
		}

		summary, err := d.Run(context.Background(), "Series", []*mangadl.Chapter{newChapter("0001"), newChapter("0002")})

		require.NoError(t, err)
		require.Len(t, summary.Failed, 1)
		assert.Equal(t, "0002", summary.Failed[0].Chapter.Name)
		assert.Contains(t, out.String(), download.MsgFailures)
		assert.Contains(t, out.String(), "0002: website is protected")
		assert.FileExists(t, layout.ArchivePath(newChapter("0001")))
	})

	t.Run("rejects duplicate chapters", func(t *testing.T) {
		t.Parallel()

		d := &download.Downloader{Layout: fs.NewLayout(t.TempDir())}

		_, err := d.Run(context.Background(), "Series", []*mangadl.Chapter{newChapter("1"), newChapter("1")})

		assert.Equal(t, mangadl.EINVALID, mangadl.ErrorCode(err))
	})

	t.Run("rejects invalid chapters", func(t *testing.T) {
		t.Parallel()

		d := &download.Downloader{Layout: fs.NewLayout(t.TempDir())}

		_, err := d.Run(context.Background(), "Series", []*mangadl.Chapter{{Website: "test"}})

		assert.Equal(t, mangadl.EINVALID, mangadl.ErrorCode(err))
	})

	t.Run("records every outcome in history", func(t *testing.T) {
		t.Parallel()

		layout := fs.NewLayout(t.TempDir())
		var mu sync.Mutex
		var records []*mangadl.Record
		d := &download.Downloader{
			Sources:      registryOf(pagedSource(1)),
			Materializer: writingMaterializer(),
			Packager:     cbz.NewPackager(false),
			Layout:       layout,
			History: &mock.HistoryService{
				CreateRecordFn: func(_ context.Context, r *mangadl.Record) error {
					mu.Lock()
					defer mu.Unlock()
					records = append(records, r)
					return nil
				},
			},
		}

		_, err := d.Run(context.Background(), "Series", []*mangadl.Chapter{newChapter("1"), newChapter("2")})

		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, r := range records {
			assert.Equal(t, mangadl.StatusCompleted, r.Status)
			assert.FileExists(t, r.ArchivePath)
		}
	})

	t.Run("interrupted run resumes without refetching", func(t *testing.T) {
		t.Parallel()

		// Given ten chapters of three pages served over HTTP
		var mu sync.Mutex
		hits := make(map[string]int)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits[r.URL.Path]++
			mu.Unlock()
			_, _ = w.Write([]byte("image " + r.URL.Path))
		}))
		defer server.Close()

		layout := fs.NewLayout(t.TempDir())
		var chapters []*mangadl.Chapter
		for i := 1; i <= 10; i++ {
			chapters = append(chapters, newChapter(fmt.Sprintf("%04d", i)))
		}

		var ctrl *download.Controller
		var interruptOnce sync.Once
		src := &mock.Source{
			PartsFn: func(_ context.Context, ch *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
				return func(yield func(mangadl.Part, error) bool) {
					for i := 1; i <= 3; i++ {
						id := mangadl.PartID(i)
						if !yield(mangadl.Part{ID: id, URL: server.URL + "/" + ch.Name + "/" + id}, nil) {
							return
						}
						if ch.Name == "0003" && i == 2 {
							interruptOnce.Do(ctrl.Interrupt)
						}
					}
				}
			},
		}
		var out bytes.Buffer
		d := &download.Downloader{
			Sources:      registryOf(src),
			Materializer: mangadlhttp.NewMaterializer(),
			Packager:     cbz.NewPackager(false),
			Layout:       layout,
			Concurrency:  1,
			Out:          &out,
		}

		// When the user interrupts during the third chapter
		ctrl = download.NewController(context.Background())
		summary, err := d.Run(ctrl.Context(), "Series", chapters)

		// Then finished chapters are archived and the third keeps its pages
		require.ErrorIs(t, err, download.ErrInterrupted)
		assert.True(t, summary.Interrupted)
		assert.Contains(t, out.String(), download.MsgInterrupted)
		assert.NotContains(t, out.String(), download.MsgNoFailures)
		assert.FileExists(t, layout.ArchivePath(chapters[0]))
		assert.FileExists(t, layout.ArchivePath(chapters[1]))
		assert.NoFileExists(t, layout.ArchivePath(chapters[2]))
		files, err := fs.Files(layout.ChapterDir(chapters[2]))
		require.NoError(t, err)
		assert.Len(t, files, 2)
		for _, ch := range chapters[3:] {
			assert.NoFileExists(t, layout.ArchivePath(ch))
		}

		// When the run is repeated without interruption
		ctrl = download.NewController(context.Background())
		out.Reset()
		summary, err = d.Run(ctrl.Context(), "Series", chapters)

		// Then every chapter is archived and no page was fetched twice
		require.NoError(t, err)
		assert.Empty(t, summary.Failed)
		assert.Contains(t, out.String(), "- Series: 10 / 10 completed.")
		for _, ch := range chapters {
			assert.Equal(t, []string{"001.png", "002.png", "003.png"}, archiveEntries(t, layout.ArchivePath(ch)))
		}
		mu.Lock()
		defer mu.Unlock()
		assert.Len(t, hits, 30)
		for path, n := range hits {
			assert.Equal(t, 1, n, "page %s fetched more than once", path)
		}
	})
}
