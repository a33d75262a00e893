package oci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"

	"github.com/meigma/homemap/source"
)

const (
	defaultTag       = "latest"
	maxManifestBytes = 4 << 20
)

// Fetcher serves store files from the layers of one OCI artifact.
type Fetcher struct {
	ref       registry.Reference
	plainHTTP bool
	userAgent string
	anonymous bool
	credStore credentials.Store
	target    oras.ReadOnlyTarget
	logger    *slog.Logger

	mu     sync.Mutex
	layers map[string]ocispec.Descriptor
}

// New creates a Fetcher for the artifact at ref, such as
// "ghcr.io/acme/home:2024-06". A missing tag selects "latest".
func New(ref string, opts ...Option) (*Fetcher, error) {
	parsed, err := registry.ParseReference(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if parsed.Reference == "" {
		parsed.Reference = defaultTag
	}
	f := &Fetcher{
		ref:       parsed,
		userAgent: "homemap/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	if f.target == nil {
		f.target = f.repository()
	}
	return f, nil
}

// Reference returns the resolved artifact reference.
func (f *Fetcher) Reference() string {
	return f.ref.String()
}

// Fetch returns the layer whose title annotation equals name. The layer is
// read fully and verified against its descriptor before it is returned.
func (f *Fetcher) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	layers, err := f.resolve(ctx)
	if err != nil {
		return nil, err
	}
	desc, ok := layers[name]
	if !ok {
		return nil, fmt.Errorf("%w: no layer titled %q in %s", source.ErrNotFound, name, f.ref)
	}
	data, err := content.FetchAll(ctx, f.target, desc)
	if err != nil {
		return nil, mapError(err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Names lists the titled layers of the artifact.
func (f *Fetcher) Names(ctx context.Context) ([]string, error) {
	layers, err := f.resolve(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	return names, nil
}

// resolve fetches the artifact manifest on first use and indexes its layers
// by title.
func (f *Fetcher) resolve(ctx context.Context) (map[string]ocispec.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.layers != nil {
		return f.layers, nil
	}

	desc, err := f.target.Resolve(ctx, f.ref.Reference)
	if err != nil {
		return nil, mapError(err)
	}
	if desc.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("%w: unsupported media type %s", ErrManifestInvalid, desc.MediaType)
	}
	if desc.Size > maxManifestBytes {
		return nil, fmt.Errorf("%w: manifest is %d bytes", ErrManifestInvalid, desc.Size)
	}
	raw, err := content.FetchAll(ctx, f.target, desc)
	if err != nil {
		return nil, mapError(err)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}

	layers := make(map[string]ocispec.Descriptor, len(manifest.Layers))
	for _, layer := range manifest.Layers {
		title := layer.Annotations[ocispec.AnnotationTitle]
		if title == "" {
			continue
		}
		if _, dup := layers[title]; dup {
			return nil, fmt.Errorf("%w: duplicate layer title %q", ErrManifestInvalid, title)
		}
		layers[title] = layer
	}
	f.logger.Debug("artifact resolved",
		slog.String("ref", f.ref.String()),
		slog.String("digest", desc.Digest.String()),
		slog.Int("layers", len(layers)))
	f.layers = layers
	return layers, nil
}

func (f *Fetcher) repository() *remote.Repository {
	return &remote.Repository{
		Reference: f.ref,
		PlainHTTP: f.plainHTTP,
		Client: &auth.Client{
			Client: retry.DefaultClient,
			Cache:  auth.NewCache(),
			Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
				if f.anonymous || f.credStore == nil {
					return auth.EmptyCredential, nil
				}
				return f.credStore.Get(ctx, hostport)
			},
			Header: http.Header{
				"User-Agent": []string{f.userAgent},
			},
		},
	}
}
