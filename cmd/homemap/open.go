package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meigma/homemap"
	"github.com/meigma/homemap/config"
	"github.com/meigma/homemap/source"
	"github.com/meigma/homemap/source/cache/disk"
	homemaphttp "github.com/meigma/homemap/source/http"
	"github.com/meigma/homemap/source/minio"
	"github.com/meigma/homemap/source/oci"
	"github.com/meigma/homemap/source/s3"
)

// state holds a loaded engine and the mappings backing it.
type state struct {
	engine   *homemap.Engine
	mappings []*source.Mapping
}

func (s *state) close() {
	for _, m := range s.mappings {
		_ = m.Close()
	}
}

// open builds the configured fetcher, loads every store into a registry and
// returns an engine over it.
func open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*state, error) {
	fetcher, err := newFetcher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	loaderOpts := []source.LoaderOption{
		source.WithLogger(logger),
		source.WithConcurrency(cfg.Concurrency),
		source.WithRateLimit(cfg.RateLimit),
	}
	if cfg.CacheDir != "" {
		cache, err := disk.New(cfg.CacheDir, disk.WithMaxBytes(cfg.CacheMaxBytes))
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		loaderOpts = append(loaderOpts, source.WithCache(cache))
	}
	loader := source.NewLoader(fetcher, loaderOpts...)

	st := &state{}
	reg := homemap.NewRegistry()
	stores := cfg.StoreNames()

	if dir, ok := fetcher.(*source.Dir); ok && cfg.Source.Dir.MMap {
		stores, err = st.mapStores(ctx, dir, reg, stores, logger)
		if err != nil {
			st.close()
			return nil, err
		}
	}
	if err := loader.LoadInto(ctx, reg, stores); err != nil {
		st.close()
		return nil, err
	}

	st.engine = homemap.New(reg,
		homemap.WithLogger(logger),
		homemap.WithPreviewBytes(uint32(cfg.PreviewBytes)), //nolint:gosec // validated non-negative
	)
	return st, nil
}

// mapStores memory-maps every store that has no part manifest and returns
// the names still left for the loader.
func (s *state) mapStores(ctx context.Context, dir *source.Dir, reg *homemap.Registry, stores source.Stores, logger *slog.Logger) (source.Stores, error) {
	names := map[homemap.Kind]*string{
		homemap.KindMap:   &stores.Map,
		homemap.KindTags:  &stores.Tags,
		homemap.KindIndex: &stores.Index,
	}
	for _, kind := range homemap.Kinds {
		name := names[kind]
		if *name == "" {
			continue
		}
		rc, err := dir.Fetch(ctx, *name+source.ManifestSuffix)
		if err == nil {
			rc.Close()
			continue
		}
		if !errors.Is(err, source.ErrNotFound) {
			return stores, err
		}
		m, err := dir.Map(*name)
		if err != nil {
			return stores, err
		}
		s.mappings = append(s.mappings, m)
		reg.Load(kind, m.Bytes())
		logger.Debug("store mapped", slog.String("store", *name), slog.Int("bytes", len(m.Bytes())))
		*name = ""
	}
	return stores, nil
}

func newFetcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (source.Fetcher, error) {
	sc := cfg.Source
	switch sc.Kind {
	case config.KindDir:
		return source.NewDir(sc.Dir.Path), nil

	case config.KindHTTP:
		headers := make(http.Header, len(sc.HTTP.Headers))
		for k, v := range sc.HTTP.Headers {
			headers.Set(k, v)
		}
		f, err := homemaphttp.New(sc.HTTP.URL, homemaphttp.WithHeaders(headers))
		if err != nil {
			return nil, err
		}
		return f, nil

	case config.KindOCI:
		opts := []oci.Option{
			oci.WithPlainHTTP(sc.OCI.PlainHTTP),
			oci.WithLogger(logger),
		}
		registry := ociRegistry(sc.OCI.Ref)
		switch {
		case sc.OCI.Token != "":
			opts = append(opts, oci.WithStaticToken(registry, sc.OCI.Token))
		case sc.OCI.Username != "":
			opts = append(opts, oci.WithStaticCredentials(registry, sc.OCI.Username, sc.OCI.Password))
		case sc.OCI.DockerConfig:
			opts = append(opts, oci.WithDockerConfig())
		default:
			opts = append(opts, oci.WithAnonymous())
		}
		f, err := oci.New(sc.OCI.Ref, opts...)
		if err != nil {
			return nil, err
		}
		return f, nil

	case config.KindMinIO:
		f, err := minio.Dial(minio.Config{
			Endpoint:  sc.MinIO.Endpoint,
			AccessKey: sc.MinIO.AccessKey,
			SecretKey: sc.MinIO.SecretKey,
			Region:    sc.MinIO.Region,
			Secure:    sc.MinIO.Secure,
		}, sc.MinIO.Bucket, sc.MinIO.Prefix)
		if err != nil {
			return nil, err
		}
		return f, nil

	case config.KindS3:
		f, err := s3.NewFromConfig(ctx, sc.S3.Bucket, sc.S3.Prefix, s3.Config{
			Region:          sc.S3.Region,
			Endpoint:        sc.S3.Endpoint,
			AccessKeyID:     sc.S3.AccessKeyID,
			SecretAccessKey: sc.S3.SecretAccessKey,
			UsePathStyle:    sc.S3.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return f, nil

	default:
		return nil, fmt.Errorf("%w: source.kind %q", config.ErrInvalid, sc.Kind)
	}
}

// ociRegistry returns the registry host of an artifact reference.
func ociRegistry(ref string) string {
	host, _, _ := strings.Cut(ref, "/")
	return host
}
