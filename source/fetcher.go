package source

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by a Fetcher when the named object does not exist.
	ErrNotFound = errors.New("source: not found")

	// ErrDigestMismatch is returned when fetched content does not match the
	// digest listed in its part manifest.
	ErrDigestMismatch = errors.New("source: digest mismatch")

	// ErrSizeMismatch is returned when an assembled store does not match the
	// original_size recorded in its part manifest.
	ErrSizeMismatch = errors.New("source: size mismatch")

	// ErrInvalidPartManifest is returned when a part manifest cannot be parsed
	// or describes an impossible layout.
	ErrInvalidPartManifest = errors.New("source: invalid part manifest")
)

// Fetcher retrieves named objects from a backing store.
//
// Names are slash-separated and relative to the fetcher's root. Fetch must
// return an error wrapping ErrNotFound when name does not exist so that the
// Loader can fall back from a part manifest to the bare store file.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, name string) (io.ReadCloser, error)

// Fetch calls f(ctx, name).
func (f FetcherFunc) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	return f(ctx, name)
}
