package mock

import "github.com/fwojciec/mangadl"

var _ mangadl.Converter = (*Converter)(nil)

// Converter is a mock implementation of mangadl.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
