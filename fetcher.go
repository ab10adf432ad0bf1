package mangadl

import "context"

// Fetcher retrieves the HTML of a site page.
// Implementations may use plain HTTP or browser automation for sites that
// block non-browser clients.
type Fetcher interface {
	// Fetch retrieves the page at url and returns its HTML.
	// Returns ENOTFOUND when the page does not exist.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}
