package source

import (
	"context"
	_ "crypto/sha256" // registers digest.SHA256
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/meigma/homemap"
)

const defaultConcurrency = 4

// Cache stores fetched parts by content digest.
//
// The disk implementation in source/cache/disk satisfies this interface.
type Cache interface {
	Get(d digest.Digest) ([]byte, bool)
	Put(d digest.Digest, data []byte) error
}

// Stores names the three store files a Registry needs.
// An empty name skips that store.
type Stores struct {
	Map   string
	Tags  string
	Index string
}

// DefaultStores returns the conventional store file names.
func DefaultStores() Stores {
	return Stores{
		Map:   "home.map.bin",
		Tags:  "home.tags.bin",
		Index: "home.index.bin",
	}
}

func (s Stores) byKind() map[homemap.Kind]string {
	return map[homemap.Kind]string{
		homemap.KindMap:   s.Map,
		homemap.KindTags:  s.Tags,
		homemap.KindIndex: s.Index,
	}
}

// Loader assembles stores from a Fetcher.
//
// Concurrent loads of the same store share one fetch. The returned buffers
// are shared between those callers and must be treated as read-only.
type Loader struct {
	fetcher     Fetcher
	cache       Cache
	logger      *slog.Logger
	concurrency int
	decoders    *decoderPool
	limiter     *rate.Limiter
	group       singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCache stores verified parts in c and serves later loads from it.
// Only parts with a recorded digest are cached.
func WithCache(c Cache) LoaderOption {
	return func(l *Loader) {
		l.cache = c
	}
}

// WithLogger sets the logger for load progress.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithConcurrency limits how many parts are fetched at once.
// Values < 1 select the default of 4.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		l.concurrency = n
	}
}

// WithMaxDecoderMemory caps the memory a zstd decoder may allocate per part.
// Zero means no limit.
func WithMaxDecoderMemory(n uint64) LoaderOption {
	return func(l *Loader) {
		l.decoders = newDecoderPool(n)
	}
}

// WithRateLimit caps fetch throughput at bytesPerSec across all parts.
// Zero or negative disables the limit.
func WithRateLimit(bytesPerSec int) LoaderOption {
	return func(l *Loader) {
		if bytesPerSec <= 0 {
			l.limiter = nil
			return
		}
		l.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
	}
}

// NewLoader creates a Loader reading from f.
func NewLoader(f Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher:     f,
		concurrency: defaultConcurrency,
		decoders:    newDecoderPool(0),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}
	if l.concurrency < 1 {
		l.concurrency = defaultConcurrency
	}
	return l
}

// Load returns the full contents of store.
//
// If "<store>.manifest.json" exists, its parts are fetched, verified,
// decoded and concatenated in order. Otherwise the store file itself is
// fetched.
//
// The shared fetch is not canceled with ctx, so one caller giving up does not
// fail the others. A canceled caller returns ctx.Err() immediately.
func (l *Loader) Load(ctx context.Context, store string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := l.group.DoChan(store, func() (any, error) {
		return l.load(context.WithoutCancel(ctx), store)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			l.logger.Debug("shared store load", slog.String("store", store))
		}
		return res.Val.([]byte), nil
	}
}

// LoadInto loads every named store concurrently and installs the results in
// reg. Nothing is installed unless all stores load.
func (l *Loader) LoadInto(ctx context.Context, reg *homemap.Registry, stores Stores) error {
	names := stores.byKind()
	results := make([][]byte, len(homemap.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range homemap.Kinds {
		name := names[kind]
		if name == "" {
			continue
		}
		g.Go(func() error {
			data, err := l.Load(gctx, name)
			if err != nil {
				return fmt.Errorf("load %s store: %w", kind, err)
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, kind := range homemap.Kinds {
		if names[kind] == "" {
			continue
		}
		reg.Load(kind, results[i])
		l.logger.Info("store installed", slog.String("kind", kind.String()), slog.String("store", names[kind]))
	}
	return nil
}

func (l *Loader) load(ctx context.Context, store string) ([]byte, error) {
	manifestName := store + ManifestSuffix
	raw, err := l.fetchAll(ctx, manifestName)
	switch {
	case errors.Is(err, ErrNotFound):
		l.logger.Debug("no part manifest, fetching store", slog.String("store", store))
		data, err := l.fetchAll(ctx, store)
		if err != nil {
			return nil, err
		}
		l.logger.Info("store loaded", slog.String("store", store), slog.Int("bytes", len(data)), slog.Int("parts", 1))
		return data, nil
	case err != nil:
		return nil, err
	}

	m, err := ParsePartManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestName, err)
	}
	data, err := l.assemble(ctx, manifestName, m)
	if err != nil {
		return nil, err
	}
	l.logger.Info("store loaded", slog.String("store", store), slog.Int("bytes", len(data)), slog.Int("parts", len(m.Names())))
	return data, nil
}

func (l *Loader) assemble(ctx context.Context, manifestName string, m *PartManifest) ([]byte, error) {
	names := m.Names()
	parts := make([][]byte, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i := range names {
		g.Go(func() error {
			data, err := l.loadPart(gctx, manifestName, m, i)
			if err != nil {
				return err
			}
			parts[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int64
	for _, p := range parts {
		total += int64(len(p))
	}
	if m.OriginalSize != nil && total != *m.OriginalSize {
		return nil, fmt.Errorf("%w: %s assembles to %d bytes, manifest records %d",
			ErrSizeMismatch, manifestName, total, *m.OriginalSize)
	}

	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func (l *Loader) loadPart(ctx context.Context, manifestName string, m *PartManifest, i int) ([]byte, error) {
	name := m.ResolvePart(manifestName, i)
	want, verify := m.Digest(i)

	if verify && l.cache != nil {
		if data, ok := l.cache.Get(want); ok {
			l.logger.Debug("part cache hit", slog.String("part", name), slog.String("digest", want.String()))
			return l.decode(name, m.CompressionOf(i), data)
		}
	}

	l.logger.Debug("fetching part", slog.String("part", name), slog.Int("index", i))
	data, err := l.fetchAll(ctx, name)
	if err != nil {
		return nil, err
	}

	if verify {
		if got := want.Algorithm().FromBytes(data); got != want {
			return nil, fmt.Errorf("%w: %s is %s, want %s", ErrDigestMismatch, name, got, want)
		}
		l.logger.Debug("part verified", slog.String("part", name), slog.String("digest", want.String()))
		if l.cache != nil {
			if err := l.cache.Put(want, data); err != nil {
				l.logger.Warn("part cache write failed", slog.String("part", name), slog.Any("error", err))
			}
		}
	}
	return l.decode(name, m.CompressionOf(i), data)
}

func (l *Loader) decode(name string, c Compression, data []byte) ([]byte, error) {
	out, err := l.decoders.decode(c, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}

func (l *Loader) fetchAll(ctx context.Context, name string) ([]byte, error) {
	rc, err := l.fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if l.limiter != nil {
		r = &limitedReader{ctx: ctx, r: rc, lim: l.limiter}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
