package http

import (
	"context"
	"time"

	"github.com/fwojciec/mangadl"
)

// RetryDelays returns n backoff delays doubling from one second: 1s, 2s, 4s...
func RetryDelays(n int) []time.Duration {
	delays := make([]time.Duration, 0, max(n, 0))
	d := time.Second
	for range n {
		delays = append(delays, d)
		d *= 2
	}
	return delays
}

// WithRetryDelays retries a failed request once per delay, after waiting it.
// Missing pages and canceled requests are not retried.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(o *options) {
		o.retries = delays
	}
}

// retry calls fn until it succeeds, fails permanently or delays run out.
func retry(ctx context.Context, delays []time.Duration, fn func() error) error {
	err := fn()
	for _, d := range delays {
		if err == nil || !transient(ctx, err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
		err = fn()
	}
	return err
}

func transient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch mangadl.ErrorCode(err) {
	case mangadl.ENOTFOUND, mangadl.EINVALID:
		return false
	}
	return true
}
