package mock

import (
	"context"

	"github.com/fwojciec/mangadl"
)

var _ mangadl.Materializer = (*Materializer)(nil)

// Materializer is a mock implementation of mangadl.Materializer.
type Materializer struct {
	MaterializeFn func(ctx context.Context, url, path string) error
}

func (m *Materializer) Materialize(ctx context.Context, url, path string) error {
	return m.MaterializeFn(ctx, url, path)
}
