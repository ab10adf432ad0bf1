package goquery

import "github.com/fwojciec/mangadl"

var _ mangadl.SourceRegistry = (*Registry)(nil)

// Registry holds the supported sites. Sources are matched against URLs in
// registration order.
type Registry struct {
	sources map[string]mangadl.Source
	order   []string
}

// NewRegistry creates a Registry holding sources.
func NewRegistry(sources ...mangadl.Source) *Registry {
	r := &Registry{sources: make(map[string]mangadl.Source)}
	for _, src := range sources {
		r.Register(src)
	}
	return r
}

// NewDefaultRegistry registers every site implemented by this package.
func NewDefaultRegistry(fetcher mangadl.Fetcher) *Registry {
	return NewRegistry(
		NewMangalife(fetcher),
		NewBatoto(fetcher),
		NewManganato(fetcher),
	)
}

// Get returns the source with the given name.
// Returns nil if no source is registered under that name.
func (r *Registry) Get(name string) mangadl.Source {
	return r.sources[name]
}

// ForURL returns the first registered source that matches url, or nil.
func (r *Registry) ForURL(url string) mangadl.Source {
	for _, name := range r.order {
		if src := r.sources[name]; src.Match(url) {
			return src
		}
	}
	return nil
}

// Register adds a source. A source registered under an existing name
// replaces it and keeps its position.
func (r *Registry) Register(src mangadl.Source) {
	name := src.Name()
	if _, ok := r.sources[name]; !ok {
		r.order = append(r.order, name)
	}
	r.sources[name] = src
}

// List returns the registered source names in registration order.
func (r *Registry) List() []string {
	return append([]string(nil), r.order...)
}
