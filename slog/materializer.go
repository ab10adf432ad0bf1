package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mangadl"
)

var _ mangadl.Materializer = (*LoggingMaterializer)(nil)

// LoggingMaterializer wraps a Materializer with logging.
type LoggingMaterializer struct {
	next   mangadl.Materializer
	logger *slog.Logger
}

func NewLoggingMaterializer(next mangadl.Materializer, logger *slog.Logger) *LoggingMaterializer {
	return &LoggingMaterializer{next: next, logger: logger}
}

func (m *LoggingMaterializer) Materialize(ctx context.Context, url, path string) (err error) {
	defer func(begin time.Time) {
		m.logger.Info("materialize",
			"url", url,
			"path", path,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return m.next.Materialize(ctx, url, path)
}
