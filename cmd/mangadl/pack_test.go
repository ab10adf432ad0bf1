package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/mangadl/cbz"
	main "github.com/fwojciec/mangadl/cmd/mangadl"
	"github.com/fwojciec/mangadl/download"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePages(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
}

func TestPackCmd_Run(t *testing.T) {
	t.Parallel()

	newDeps := func(stdout *bytes.Buffer) *main.Dependencies {
		return &main.Dependencies{
			Ctx:         context.Background(),
			Stdout:      stdout,
			Packager:    cbz.NewPackager(false),
			Concurrency: 2,
			Display:     download.NewTextDisplay,
		}
	}

	t.Run("packs chapter directories next to the folder", func(t *testing.T) {
		t.Parallel()

		// Given a folder with two chapter directories
		src := filepath.Join(t.TempDir(), "Berserk")
		writePages(t, filepath.Join(src, "0001"), "001.png", "002.png")
		writePages(t, filepath.Join(src, "0002"), "001.png")
		stdout := &bytes.Buffer{}

		// When packing it
		err := (&main.PackCmd{Dir: src}).Run(newDeps(stdout))

		// Then each chapter gets an archive in <folder>_CBZ and sources stay
		require.NoError(t, err)
		entries, err := cbz.Entries(filepath.Join(src+"_CBZ", "0001.cbz"))
		require.NoError(t, err)
		assert.Equal(t, []string{"001.png", "002.png"}, entries)
		assert.FileExists(t, filepath.Join(src+"_CBZ", "0002.cbz"))
		assert.FileExists(t, filepath.Join(src, "0001", "001.png"))
		assert.Contains(t, stdout.String(), download.MsgNoFailures)
	})

	t.Run("fails empty chapter directories", func(t *testing.T) {
		t.Parallel()

		// Given a chapter directory without pages
		src := filepath.Join(t.TempDir(), "Berserk")
		writePages(t, filepath.Join(src, "0001"))
		out := filepath.Join(t.TempDir(), "out")
		stdout := &bytes.Buffer{}

		// When packing it into a custom directory
		err := (&main.PackCmd{Dir: src, Out: out}).Run(newDeps(stdout))

		// Then the run reports the failure
		require.ErrorIs(t, err, main.ErrChaptersFailed)
		assert.Contains(t, stdout.String(), "0001: no pages found")
		assert.NoFileExists(t, filepath.Join(out, "0001.cbz"))
	})

	t.Run("reports folder without chapters", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}

		err := (&main.PackCmd{Dir: t.TempDir()}).Run(newDeps(stdout))

		require.NoError(t, err)
		assert.Equal(t, "No chapter directories found.\n", stdout.String())
	})
}
