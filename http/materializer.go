package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/mangadl"
)

var _ mangadl.Materializer = (*Materializer)(nil)

// Materializer streams remote images to local files.
// Bytes are written to "<path>.part" and renamed to path once the body has
// been fully received, so path only ever holds complete downloads.
type Materializer struct {
	client  *http.Client
	header  http.Header
	limiter mangadl.DomainLimiter
	retries []time.Duration
}

// NewMaterializer creates a Materializer.
func NewMaterializer(opts ...Option) *Materializer {
	o := newOptions(opts)
	return &Materializer{
		client:  o.client(),
		header:  o.header(),
		limiter: o.limiter,
		retries: o.retries,
	}
}

// Materialize downloads url into path unless path already exists.
func (m *Materializer) Materialize(ctx context.Context, url, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return retry(ctx, m.retries, func() error {
		return m.download(ctx, url, path)
	})
}

// download streams url into path through a temporary file.
func (m *Materializer) download(ctx context.Context, url, path string) error {
	resp, err := get(ctx, m.client, m.limiter, m.header, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	_, err = io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("download %s: %w", url, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
