package mock

import (
	"context"

	"github.com/fwojciec/mangadl"
)

var _ mangadl.Packager = (*Packager)(nil)

// Packager is a mock implementation of mangadl.Packager.
type Packager struct {
	PackFn func(ctx context.Context, ch *mangadl.Chapter, dst string, pages []string) error
}

func (p *Packager) Pack(ctx context.Context, ch *mangadl.Chapter, dst string, pages []string) error {
	return p.PackFn(ctx, ch, dst, pages)
}
