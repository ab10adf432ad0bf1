package mock

import "github.com/fwojciec/mangadl"

var _ mangadl.ProgressDisplay = (*ProgressDisplay)(nil)

// ProgressDisplay is a mock implementation of mangadl.ProgressDisplay.
type ProgressDisplay struct {
	UpdateFn func(completed, total int)
	CloseFn  func() error
}

func (d *ProgressDisplay) Update(completed, total int) {
	d.UpdateFn(completed, total)
}

func (d *ProgressDisplay) Close() error {
	return d.CloseFn()
}
