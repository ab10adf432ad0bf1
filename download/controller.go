package download

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
)

// ErrInterrupted is the cancellation cause of a run stopped by the user.
var ErrInterrupted = errors.New("interrupted")

// Controller owns the cancellation flag of a run. The flag is raised at most
// once; workers, the scheduler and the reporter observe it through Context.
type Controller struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// NewController returns a Controller whose context is derived from parent.
func NewController(parent context.Context) *Controller {
	ctx, cancel := context.WithCancelCause(parent)
	return &Controller{ctx: ctx, cancel: cancel}
}

// Context returns the context canceled by Interrupt.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Interrupt raises the cancellation flag. Calls after the first are no-ops.
func (c *Controller) Interrupt() {
	c.cancel(ErrInterrupted)
}

// Interrupted reports whether Interrupt has been called.
func (c *Controller) Interrupted() bool {
	return Interrupted(c.ctx)
}

// Stop releases the controller's resources without marking the run as
// interrupted.
func (c *Controller) Stop() {
	c.cancel(context.Canceled)
}

// Notify calls Interrupt when one of sigs arrives. Only the first signal is
// intercepted; the next one gets the default behavior, so a second Ctrl+C
// terminates the process at once. The returned function stops listening.
func (c *Controller) Notify(sigs ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			signal.Stop(ch)
			c.Interrupt()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// Interrupted reports whether ctx was canceled with ErrInterrupted.
func Interrupted(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrInterrupted)
}
