package mangadl

import "context"

// Materializer stores a remote resource as a local file.
type Materializer interface {
	// Materialize downloads url into path. It is a no-op when path already
	// exists. On error no file is left at path.
	Materialize(ctx context.Context, url, path string) error
}
