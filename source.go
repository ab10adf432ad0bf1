package mangadl

import (
	"context"
	"iter"
)

// Source is a manga reading site.
type Source interface {
	// Name returns the website identifier used in chapter records and on disk.
	Name() string

	// Match reports whether url belongs to this website.
	Match(url string) bool

	// Search returns at most limit series whose title matches query.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// Resolve loads the series at url together with its chapter list.
	Resolve(ctx context.Context, url string) (*Series, error)

	// Parts lazily yields the pages of a chapter in increasing ID order.
	// The sequence ends either when no further page exists or right after
	// yielding a single non-nil error, which describes why the chapter
	// cannot be fetched.
	Parts(ctx context.Context, ch *Chapter) iter.Seq2[Part, error]
}

// SourceRegistry looks up sources by name or URL.
type SourceRegistry interface {
	// Get returns the source with the given name, or nil.
	Get(name string) Source

	// ForURL returns the first source matching url, or nil.
	ForURL(url string) Source

	// Register adds a source to the registry.
	Register(src Source)

	// List returns the names of all registered sources.
	List() []string
}
