package disk

import (
	"bytes"
	_ "crypto/sha256" // registers digest.SHA256
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
	tempPattern           = "part-*.tmp"
)

// Cache stores fetched parts on the local filesystem, keyed by content
// digest. Files live under <dir>/<algorithm>/<shard>/<encoded digest>.
//
// Content is verified against its digest on every Get, so a corrupted entry
// is dropped and reported as a miss. The cache is safe for concurrent use.
type Cache struct {
	dir            string       // root directory for cached files
	shardPrefixLen int          // number of hex chars for subdirectory sharding
	dirPerm        os.FileMode  // permissions for created directories
	maxBytes       int64        // maximum cache size (0 = unlimited)
	bytes          atomic.Int64 // current total size of cached files
	pruneMu        sync.Mutex   // serializes prune operations
}

// Option configures a disk cache.
type Option func(*Cache)

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(c *Cache) {
		c.shardPrefixLen = n
	}
}

// WithDirPerm sets the directory permissions used for cache directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(c *Cache) {
		c.dirPerm = mode
	}
}

// WithMaxBytes sets the maximum cache size in bytes.
// Values < 0 are invalid. Use 0 to disable the limit.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) {
		c.maxBytes = n
	}
}

// New creates a disk-backed cache rooted at dir.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	c := &Cache{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if c.maxBytes < 0 {
		return nil, errors.New("max bytes must be >= 0")
	}
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return nil, err
	}
	size, err := dirSize(dir)
	if err != nil {
		return nil, err
	}
	c.bytes.Store(size)
	return c, nil
}

// Get returns the cached content for d.
// Returns nil, false if the content is not cached or fails verification.
func (c *Cache) Get(d digest.Digest) ([]byte, bool) {
	path, err := c.path(d)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a validated digest
	if err != nil {
		return nil, false
	}
	if d.Algorithm().FromBytes(data) != d {
		_ = c.Delete(d)
		return nil, false
	}
	return data, true
}

// Put stores data under d. Data that does not match d is rejected.
// Storing content that is already cached is a no-op.
func (c *Cache) Put(d digest.Digest, data []byte) error {
	path, err := c.path(d)
	if err != nil {
		return err
	}
	if got := d.Algorithm().FromBytes(data); got != d {
		return fmt.Errorf("cache put %s: content digest is %s", d, got)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if mkdirErr := os.MkdirAll(dir, c.dirPerm); mkdirErr != nil {
		return mkdirErr
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, bytes.NewReader(data))
	if err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if ok, err := c.ensureCapacity(written); err != nil {
		_ = os.Remove(tmpPath)
		return err
	} else if !ok {
		_ = os.Remove(tmpPath)
		return nil
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		if _, statErr := os.Stat(path); statErr == nil {
			return nil
		}
		return err
	}
	c.bytes.Add(written)
	return nil
}

// Delete removes cached content for d. Missing entries are a no-op.
func (c *Cache) Delete(d digest.Digest) error {
	path, err := c.path(d)
	if err != nil {
		return err
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return nil
		}
		return statErr
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	c.bytes.Add(-info.Size())
	return nil
}

// MaxBytes returns the configured cache size limit (0 = unlimited).
func (c *Cache) MaxBytes() int64 {
	return c.maxBytes
}

// SizeBytes returns the current cache size in bytes.
func (c *Cache) SizeBytes() int64 {
	return c.bytes.Load()
}

// Prune removes the oldest cached entries until the cache is at or below
// targetBytes. Returns the number of bytes freed.
func (c *Cache) Prune(targetBytes int64) (int64, error) {
	c.pruneMu.Lock()
	defer c.pruneMu.Unlock()

	freed, remaining, err := pruneDir(c.dir, targetBytes)
	if err != nil {
		return 0, err
	}
	c.bytes.Store(remaining)
	return freed, nil
}

func (c *Cache) path(d digest.Digest) (string, error) {
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("cache key %q: %w", d, err)
	}
	encoded := d.Encoded()
	prefixLen := min(c.shardPrefixLen, len(encoded))
	if prefixLen <= 0 {
		return filepath.Join(c.dir, d.Algorithm().String(), encoded), nil
	}
	return filepath.Join(c.dir, d.Algorithm().String(), encoded[:prefixLen], encoded), nil
}

func (c *Cache) ensureCapacity(need int64) (bool, error) {
	if c.maxBytes <= 0 {
		return true, nil
	}
	if need > c.maxBytes {
		return false, nil
	}
	if c.SizeBytes()+need <= c.maxBytes {
		return true, nil
	}
	if _, err := c.Prune(c.maxBytes - need); err != nil {
		return false, err
	}
	return c.SizeBytes()+need <= c.maxBytes, nil
}

func isTemp(path string) bool {
	return strings.HasSuffix(path, ".tmp")
}
