package goquery_test

import (
	"context"
	"sync"

	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/mock"
)

// siteFetcher serves canned HTML by URL and records requested URLs.
// Unknown URLs return ENOTFOUND, like the HTTP fetcher does for a 404.
type siteFetcher struct {
	mock.Fetcher

	mu        sync.Mutex
	requested []string
}

func newSiteFetcher(pages map[string]string) *siteFetcher {
	f := &siteFetcher{}
	f.FetchFn = func(_ context.Context, url string) (string, error) {
		f.mu.Lock()
		f.requested = append(f.requested, url)
		f.mu.Unlock()
		html, ok := pages[url]
		if !ok {
			return "", mangadl.Errorf(mangadl.ENOTFOUND, "HTTP 404 for %s", url)
		}
		return html, nil
	}
	f.CloseFn = func() error { return nil }
	return f
}

func (f *siteFetcher) Requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

// collect drains a part sequence.
func collect(seq func(yield func(mangadl.Part, error) bool)) ([]mangadl.Part, error) {
	var parts []mangadl.Part
	for p, err := range seq {
		if err != nil {
			return parts, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}
