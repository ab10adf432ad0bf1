package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/download"
	"gopkg.in/yaml.v3"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Sources    mangadl.SourceRegistry
	History    mangadl.HistoryService
	Converter  mangadl.Converter
	Packager   mangadl.Packager
	Downloader *download.Downloader

	Concurrency int
	Display     download.DisplayFunc
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config      kong.ConfigFlag `help:"YAML configuration file." placeholder:"FILE"`
	Root        string          `help:"Directory archives are written under." default:"Mangas" env:"MANGADL_ROOT" type:"path"`
	Concurrency int             `short:"c" help:"Chapters processed at once (default: number of CPUs, at most 8)." env:"MANGADL_CONCURRENCY"`
	Timeout     time.Duration   `short:"t" default:"30s" help:"Timeout per request." env:"MANGADL_TIMEOUT"`
	Retries     int             `help:"Retries of a failed request, with backoff from 1s." env:"MANGADL_RETRIES"`
	RPS         float64         `name:"rps" help:"Requests per second per host, 0 for unlimited." env:"MANGADL_RPS"`
	Browser     bool            `help:"Load pages with headless Chrome." env:"MANGADL_BROWSER"`
	Chrome      string          `help:"Chrome binary used with --browser." env:"MANGADL_CHROME" type:"path"`
	Bar         bool            `help:"Show a progress bar instead of the progress line." env:"MANGADL_BAR"`
	NoComicInfo bool            `name:"no-comic-info" help:"Do not add ComicInfo.xml to archives." env:"MANGADL_NO_COMIC_INFO"`
	Verbose     bool            `short:"v" help:"Log requests to stderr."`
	LogFile     string          `help:"Write logs to a file." env:"MANGADL_LOG_FILE" type:"path"`
	DB          string          `name:"db" help:"History database (default: ~/.mangadl/history.db)." env:"MANGADL_DB" type:"path"`

	Download DownloadCmd `cmd:"" help:"Download the chapters of a series"`
	Search   SearchCmd   `cmd:"" help:"Search a site for series"`
	Info     InfoCmd     `cmd:"" help:"Show a series and its chapters"`
	Pack     PackCmd     `cmd:"" help:"Pack chapter directories into CBZ archives"`
	History  HistoryCmd  `cmd:"" help:"List recorded chapter outcomes"`
}

// DownloadCmd is the "download" subcommand.
type DownloadCmd struct {
	URL      string   `arg:"" help:"Series URL"`
	Chapters []string `name:"chapter" short:"n" sep:"none" help:"Only download this chapter (repeatable)"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query   []string `arg:"" help:"Search terms"`
	Website string   `short:"w" default:"mangalife" help:"Site to search"`
	Limit   int      `short:"l" default:"20" help:"Maximum number of results"`
}

// InfoCmd is the "info" subcommand.
type InfoCmd struct {
	URL string `arg:"" help:"Series URL"`
}

// PackCmd is the "pack" subcommand.
type PackCmd struct {
	Dir string `arg:"" type:"existingdir" help:"Directory holding one sub-directory of pages per chapter"`
	Out string `short:"o" type:"path" help:"Output directory (default: <dir>_CBZ)"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Website string `short:"w" help:"Only show this site"`
	Series  string `short:"s" help:"Only show this series"`
	Failed  bool   `help:"Only show failed chapters"`
	Limit   int    `short:"l" default:"50" help:"Maximum number of records"`
}

// YAML loads a configuration file whose keys are long flag names, with
// dashes or underscores:
//
//	root: ~/Manga
//	concurrency: 4
//	no_comic_info: true
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		for _, key := range []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")} {
			if v, ok := values[key]; ok {
				return v, nil
			}
		}
		return nil, nil
	}), nil
}
