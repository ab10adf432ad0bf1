package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/cbz"
	"github.com/fwojciec/mangadl/download"
	"github.com/fwojciec/mangadl/fs"
	"github.com/fwojciec/mangadl/goquery"
	"github.com/fwojciec/mangadl/htmltomarkdown"
	mangadlhttp "github.com/fwojciec/mangadl/http"
	"github.com/fwojciec/mangadl/progressbar"
	"github.com/fwojciec/mangadl/rod"
	mangaslog "github.com/fwojciec/mangadl/slog"
	"github.com/fwojciec/mangadl/sqlite"
	"github.com/joho/godotenv"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitFailures    = 2
	ExitInterrupted = 130
)

// ErrChaptersFailed is returned when a run completed with failed chapters.
// The failures have already been reported.
var ErrChaptersFailed = errors.New("some chapters have failed")

func main() {
	_ = godotenv.Load()

	ctrl := download.NewController(context.Background())
	stop := ctrl.Notify(os.Interrupt, syscall.SIGTERM)

	m := NewMain()
	err := m.Run(ctrl.Context(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	ctrl.Stop()

	code := ExitCode(err)
	if code == ExitError {
		fmt.Fprintf(os.Stderr, "error: %s\n", mangadl.ErrorMessage(err))
	}
	os.Exit(code)
}

// ExitCode maps the result of Run to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, download.ErrInterrupted):
		return ExitInterrupted
	case errors.Is(err, ErrChaptersFailed):
		return ExitFailures
	default:
		return ExitError
	}
}

// Main represents the program.
type Main struct {
	// Config files read when --config is not given. Missing files are skipped.
	ConfigPaths []string

	// SQLite database holding the download history.
	DB *sqlite.DB

	// Sources overrides the built-in sites. Set before calling Run().
	Sources mangadl.SourceRegistry

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPaths: []string{"~/.mangadl/config.yaml", ".mangadl.yaml"},
	}
}

// Close releases everything Run opened.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("mangadl"),
		kong.Description("Download manga chapters into CBZ archives."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
		kong.Configuration(YAML, m.ConfigPaths...),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'mangadl --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.wire(cli, strings.Fields(kongCtx.Command())[0], deps); err != nil {
		return err
	}
	return interrupted(ctx, kongCtx.Run(deps), stdout)
}

// interrupted turns any failure of a run the user interrupted into
// download.ErrInterrupted. A run stopped before the download started has
// not told the user yet, so the resume hint is printed here.
func interrupted(ctx context.Context, err error, stdout io.Writer) error {
	if err == nil || errors.Is(err, download.ErrInterrupted) || !download.Interrupted(ctx) {
		return err
	}
	fmt.Fprintln(stdout, download.MsgInterrupted)
	return download.ErrInterrupted
}

// wire builds the services the selected command needs.
func (m *Main) wire(cli *CLI, command string, deps *Dependencies) error {
	logger, err := m.logger(cli, deps.Stderr)
	if err != nil {
		return err
	}
	deps.Logger = logger

	concurrency := cli.Concurrency
	if concurrency <= 0 {
		concurrency = download.DefaultConcurrency()
	}
	deps.Concurrency = concurrency
	deps.Display = download.NewTextDisplay
	if cli.Bar {
		deps.Display = progressbar.NewDisplay
	}
	deps.Packager = cbz.NewPackager(!cli.NoComicInfo)
	deps.Converter = htmltomarkdown.NewConverter()

	limiter := download.NewDomainLimiter(cli.RPS, 1)

	var fetcher mangadl.Fetcher
	if cli.Browser && m.Sources == nil && command != "pack" && command != "history" {
		var opts []rod.BrowserOption
		if cli.Chrome != "" {
			opts = append(opts, rod.WithBin(cli.Chrome))
		}
		browser, err := rod.Launch(opts...)
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = rod.NewFetcher(browser, rod.WithTimeout(cli.Timeout), rod.WithLimiter(limiter))
	} else {
		fetcher = mangadlhttp.NewFetcher(
			mangadlhttp.WithTimeout(cli.Timeout),
			mangadlhttp.WithLimiter(limiter),
			mangadlhttp.WithRetryDelays(mangadlhttp.RetryDelays(cli.Retries)...),
		)
	}
	fetcher = mangaslog.NewLoggingFetcher(fetcher, logger)
	m.closers = append(m.closers, fetcher)

	sources := m.Sources
	if sources == nil {
		sources = goquery.NewDefaultRegistry(fetcher)
	}
	deps.Sources = mangaslog.NewLoggingRegistry(sources, logger)

	if command == "download" || command == "history" {
		if err := m.openDB(cli.DB, deps.Stderr); err != nil {
			return err
		}
		deps.History = sqlite.NewHistoryService(m.DB)
	}

	materializer := mangadlhttp.NewMaterializer(
		mangadlhttp.WithTimeout(cli.Timeout),
		mangadlhttp.WithLimiter(limiter),
		mangadlhttp.WithRetryDelays(mangadlhttp.RetryDelays(cli.Retries)...),
	)
	deps.Downloader = &download.Downloader{
		Sources:      deps.Sources,
		Materializer: mangaslog.NewLoggingMaterializer(materializer, logger),
		Packager:     deps.Packager,
		Layout:       fs.NewLayout(cli.Root),
		History:      deps.History,
		Logger:       logger,
		Concurrency:  concurrency,
		Out:          deps.Stdout,
		Display:      deps.Display,
	}
	return nil
}

// logger returns a debug logger on stderr or on --log-file. Without either
// flag logs are discarded so that they do not break the progress line.
func (m *Main) logger(cli *CLI, stderr io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	switch {
	case cli.LogFile != "":
		f, err := os.OpenFile(cli.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		m.closers = append(m.closers, f)
		return slog.New(slog.NewTextHandler(f, opts)), nil
	case cli.Verbose:
		return slog.New(slog.NewTextHandler(stderr, opts)), nil
	default:
		return slog.New(slog.DiscardHandler), nil
	}
}

func (m *Main) openDB(path string, stderr io.Writer) error {
	if path == "" {
		path = defaultDBPath()
	}
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintln(stderr, "Hint: Set MANGADL_DB to use a different database path")
		return fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	m.closers = append(m.closers, m.DB)
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mangadl.db"
	}
	dir := filepath.Join(home, ".mangadl")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "history.db")
}
