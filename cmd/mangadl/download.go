package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/mangadl"
)

// Run executes the download command.
func (c *DownloadCmd) Run(deps *Dependencies) error {
	series, err := resolve(deps, c.URL)
	if err != nil {
		return err
	}

	chapters, err := selectChapters(series, c.Chapters)
	if err != nil {
		return err
	}
	if len(chapters) == 0 {
		fmt.Fprintln(deps.Stdout, "No chapters found.")
		return nil
	}

	summary, err := deps.Downloader.Run(deps.Ctx, series.Name, chapters)
	if err != nil {
		return err
	}
	if len(summary.Failed) > 0 {
		return ErrChaptersFailed
	}
	return nil
}

// resolve finds the site serving url and loads the series from it.
func resolve(deps *Dependencies, url string) (*mangadl.Series, error) {
	src := deps.Sources.ForURL(url)
	if src == nil {
		return nil, mangadl.Errorf(mangadl.EINVALID, "unsupported website: %s (supported: %s)",
			url, strings.Join(deps.Sources.List(), ", "))
	}
	return src.Resolve(deps.Ctx, url)
}

// selectChapters returns the chapters of series named in names, in series
// order. No names selects every chapter.
func selectChapters(series *mangadl.Series, names []string) ([]*mangadl.Chapter, error) {
	if len(names) == 0 {
		return series.Chapters, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if series.Chapter(name) == nil {
			return nil, mangadl.Errorf(mangadl.ENOTFOUND, "chapter %q not found in %s", name, series.Name)
		}
		wanted[name] = true
	}

	var chapters []*mangadl.Chapter
	for _, ch := range series.Chapters {
		if wanted[ch.Name] {
			chapters = append(chapters, ch)
		}
	}
	return chapters, nil
}
