// Package bloom provides probabilistic set membership for deduplicating
// scraped links, such as search results repeated across result pages.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter is a Bloom filter over strings.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected keys
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// TestAndAdd reports whether key might already have been added, then adds it.
// False positives are possible; false negatives are not.
func (f *Filter) TestAndAdd(key string) bool {
	return f.f.TestAndAddString(key)
}
