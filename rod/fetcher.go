// Package rod fetches pages through headless Chrome, for sites that only
// serve their reader data to a real browser.
package rod

import (
	"context"
	"time"

	"github.com/fwojciec/mangadl"
	mangadlhttp "github.com/fwojciec/mangadl/http"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a page load including its scripts.
const DefaultFetchTimeout = 30 * time.Second

var _ mangadl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML, one Browser tab per fetch.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	browser   *Browser
	timeout   time.Duration
	userAgent string
	limiter   mangadl.DomainLimiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLimiter rate limits page loads per host.
func WithLimiter(l mangadl.DomainLimiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// NewFetcher creates a Fetcher on top of browser. Closing the Fetcher closes
// the browser.
func NewFetcher(browser *Browser, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		browser:   browser,
		timeout:   DefaultFetchTimeout,
		userAgent: mangadlhttp.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads url in a new tab and returns the rendered HTML. The status of
// the document response maps to errors the way the HTTP fetcher does.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, mangadlhttp.Host(url)); err != nil {
			return "", err
		}
	}

	page, release, err := f.browser.Tab()
	if err != nil {
		return "", err
	}
	defer release()

	page = page.Context(ctx).Timeout(f.timeout)
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
		return "", err
	}

	status := 0
	waitResponse := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	waitResponse()
	if status < 200 || status > 299 {
		return "", mangadlhttp.StatusError(status, url)
	}

	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	return page.HTML()
}

// Close shuts the browser down.
func (f *Fetcher) Close() error {
	return f.browser.Close()
}
