package disk

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

type cacheEntry struct {
	path    string
	size    int64
	modTime time.Time
}

// walkEntries lists every committed cache file under root. In-flight temp
// files are skipped.
func walkEntries(root string) ([]cacheEntry, error) {
	var entries []cacheEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || isTemp(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, cacheEntry{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func dirSize(root string) (int64, error) {
	entries, err := walkEntries(root)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.size
	}
	return total, nil
}

func pruneDir(root string, targetBytes int64) (freed int64, remaining int64, err error) {
	targetBytes = max(targetBytes, 0)

	entries, err := walkEntries(root)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		remaining += e.size
	}
	if remaining <= targetBytes {
		return 0, remaining, nil
	}

	slices.SortFunc(entries, func(a, b cacheEntry) int {
		if c := a.modTime.Compare(b.modTime); c != 0 {
			return c
		}
		return strings.Compare(a.path, b.path)
	})

	for _, entry := range entries {
		if remaining <= targetBytes {
			break
		}
		if err := os.Remove(entry.path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return freed, remaining, err
		}
		remaining -= entry.size
		freed += entry.size
	}
	return freed, remaining, nil
}
