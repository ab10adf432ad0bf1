package slog

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/fwojciec/mangadl"
)

var _ mangadl.Source = (*LoggingSource)(nil)

// LoggingSource wraps a Source with logging. Part sequences are logged once
// they stop, with the number of parts yielded.
type LoggingSource struct {
	next   mangadl.Source
	logger *slog.Logger
}

func NewLoggingSource(next mangadl.Source, logger *slog.Logger) *LoggingSource {
	return &LoggingSource{next: next, logger: logger.With("source", next.Name())}
}

func (s *LoggingSource) Name() string {
	return s.next.Name()
}

func (s *LoggingSource) Match(url string) bool {
	return s.next.Match(url)
}

func (s *LoggingSource) Search(ctx context.Context, query string, limit int) (results []mangadl.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Info("search",
			"query", query,
			"count", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query, limit)
}

func (s *LoggingSource) Resolve(ctx context.Context, url string) (series *mangadl.Series, err error) {
	defer func(begin time.Time) {
		chapters := 0
		if series != nil {
			chapters = len(series.Chapters)
		}
		s.logger.Info("resolve",
			"url", url,
			"chapters", chapters,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Resolve(ctx, url)
}

func (s *LoggingSource) Parts(ctx context.Context, ch *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
	return func(yield func(mangadl.Part, error) bool) {
		begin := time.Now()
		var (
			count int
			err   error
		)
		defer func() {
			s.logger.Info("parts",
				"series", ch.Series,
				"chapter", ch.Name,
				"count", count,
				"duration", time.Since(begin),
				"err", err,
			)
		}()
		for part, perr := range s.next.Parts(ctx, ch) {
			if perr != nil {
				err = perr
			} else {
				count++
			}
			if !yield(part, perr) {
				return
			}
		}
	}
}
