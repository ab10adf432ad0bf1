package slog

import (
	"log/slog"

	"github.com/fwojciec/mangadl"
)

var _ mangadl.SourceRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry hands out sources wrapped in LoggingSource.
type LoggingRegistry struct {
	next   mangadl.SourceRegistry
	logger *slog.Logger
}

func NewLoggingRegistry(next mangadl.SourceRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

func (r *LoggingRegistry) Get(name string) mangadl.Source {
	return r.wrap(r.next.Get(name))
}

// ForURL logs which source claimed url.
func (r *LoggingRegistry) ForURL(url string) mangadl.Source {
	src := r.next.ForURL(url)
	name := "(none)"
	if src != nil {
		name = src.Name()
	}
	r.logger.Info("source detection", "url", url, "source", name)
	return r.wrap(src)
}

func (r *LoggingRegistry) Register(src mangadl.Source) {
	r.next.Register(src)
}

func (r *LoggingRegistry) List() []string {
	return r.next.List()
}

func (r *LoggingRegistry) wrap(src mangadl.Source) mangadl.Source {
	if src == nil {
		return nil
	}
	return NewLoggingSource(src, r.logger)
}
