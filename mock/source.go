package mock

import (
	"context"
	"iter"

	"github.com/fwojciec/mangadl"
)

var _ mangadl.Source = (*Source)(nil)

// Source is a mock implementation of mangadl.Source.
type Source struct {
	NameFn    func() string
	MatchFn   func(url string) bool
	SearchFn  func(ctx context.Context, query string, limit int) ([]mangadl.SearchResult, error)
	ResolveFn func(ctx context.Context, url string) (*mangadl.Series, error)
	PartsFn   func(ctx context.Context, ch *mangadl.Chapter) iter.Seq2[mangadl.Part, error]
}

func (s *Source) Name() string {
	return s.NameFn()
}

func (s *Source) Match(url string) bool {
	return s.MatchFn(url)
}

func (s *Source) Search(ctx context.Context, query string, limit int) ([]mangadl.SearchResult, error) {
	return s.SearchFn(ctx, query, limit)
}

func (s *Source) Resolve(ctx context.Context, url string) (*mangadl.Series, error) {
	return s.ResolveFn(ctx, url)
}

func (s *Source) Parts(ctx context.Context, ch *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
	return s.PartsFn(ctx, ch)
}

var _ mangadl.SourceRegistry = (*SourceRegistry)(nil)

// SourceRegistry is a mock implementation of mangadl.SourceRegistry.
type SourceRegistry struct {
	GetFn      func(name string) mangadl.Source
	ForURLFn   func(url string) mangadl.Source
	RegisterFn func(src mangadl.Source)
	ListFn     func() []string
}

func (r *SourceRegistry) Get(name string) mangadl.Source {
	return r.GetFn(name)
}

func (r *SourceRegistry) ForURL(url string) mangadl.Source {
	return r.ForURLFn(url)
}

func (r *SourceRegistry) Register(src mangadl.Source) {
	r.RegisterFn(src)
}

func (r *SourceRegistry) List() []string {
	return r.ListFn()
}

// Parts returns a sequence yielding parts in order, followed by err when it
// is non-nil.
func Parts(parts []mangadl.Part, err error) iter.Seq2[mangadl.Part, error] {
	return func(yield func(mangadl.Part, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
		if err != nil {
			yield(mangadl.Part{}, err)
		}
	}
}
