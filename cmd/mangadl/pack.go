package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/download"
	"github.com/fwojciec/mangadl/fs"
)

// Run executes the pack command.
func (c *PackCmd) Run(deps *Dependencies) error {
	src := filepath.Clean(c.Dir)
	dst := c.Out
	if dst == "" {
		dst = src + "_CBZ"
	}

	names, err := fs.Subdirs(src)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(deps.Stdout, "No chapter directories found.")
		return nil
	}

	series := filepath.Base(src)
	chapters := make([]*mangadl.Chapter, 0, len(names))
	for _, name := range names {
		chapters = append(chapters, &mangadl.Chapter{Website: "local", Series: series, Name: name})
	}

	r := &download.Repacker{
		Packager:    deps.Packager,
		Src:         src,
		Dst:         dst,
		Concurrency: deps.Concurrency,
		Out:         deps.Stdout,
		Display:     deps.Display,
	}
	summary, err := r.Run(deps.Ctx, series, chapters)
	if err != nil {
		return err
	}
	if len(summary.Failed) > 0 {
		return ErrChaptersFailed
	}
	return nil
}
