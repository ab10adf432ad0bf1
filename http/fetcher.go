// Package http fetches site pages and downloads page images over plain HTTP.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/mangadl"
)

// Ensure Fetcher implements mangadl.Fetcher at compile time.
var _ mangadl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using HTTP requests.
// Unlike rod.Fetcher, this does not execute JavaScript.
type Fetcher struct {
	client  *http.Client
	header  http.Header
	limiter mangadl.DomainLimiter
	retries []time.Duration
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	o := newOptions(opts)
	return &Fetcher{
		client:  o.client(),
		header:  o.header(),
		limiter: o.limiter,
		retries: o.retries,
	}
}

// Fetch retrieves the HTML content from the given URL.
// A 404 or 410 reply returns ENOTFOUND.
func (f *Fetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	err = retry(ctx, f.retries, func() error {
		html, err = f.fetch(ctx, url)
		return err
	})
	return html, err
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	resp, err := get(ctx, f.client, f.limiter, f.header, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}
