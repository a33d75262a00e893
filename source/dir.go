package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir fetches objects from a local directory. Names may not escape the
// directory.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory the fetcher reads from.
func (d *Dir) Root() string {
	return d.root
}

// Fetch opens name relative to the root directory.
func (d *Dir) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(d.root)
	if err != nil {
		return nil, fmt.Errorf("open root %s: %w", d.root, err)
	}
	defer root.Close()

	f, err := root.Open(filepath.FromSlash(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	return f, nil
}

// Map memory-maps name relative to the root directory. Like Fetch, the name
// may not leave the root, including through symlinks. The returned Mapping
// must be closed once its bytes are no longer served.
func (d *Dir) Map(name string) (*Mapping, error) {
	root, err := os.OpenRoot(d.root)
	if err != nil {
		return nil, fmt.Errorf("open root %s: %w", d.root, err)
	}
	defer root.Close()

	f, err := root.Open(filepath.FromSlash(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("map %s: %w", name, err)
	}
	defer f.Close()
	return mapOpen(f)
}
