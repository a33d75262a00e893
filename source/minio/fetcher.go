// Package minio fetches homemap store files from MinIO or any other
// S3-compatible object store (Ceph, Garage, SeaweedFS).
package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/meigma/homemap/source"
)

// Fetcher reads objects under a key prefix of one bucket.
type Fetcher struct {
	client *minio.Client
	bucket string
	prefix string
}

// New creates a Fetcher. prefix is joined to every name (e.g. "homemap/").
func New(client *minio.Client, bucket, prefix string) *Fetcher {
	return &Fetcher{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Config describes how to reach an S3-compatible endpoint.
type Config struct {
	Endpoint  string // host[:port], without scheme
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

// Dial creates a MinIO client from cfg and returns a Fetcher for bucket.
func Dial(cfg Config, bucket, prefix string) (*Fetcher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client for %s: %w", cfg.Endpoint, err)
	}
	return New(client, bucket, prefix), nil
}

// Key returns the object key name resolves to.
func (f *Fetcher) Key(name string) string {
	return path.Join(f.prefix, name)
}

// Fetch returns a reader over the object for name.
func (f *Fetcher) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	key := f.Key(name)
	obj, err := f.client.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, f.mapError(key, err)
	}
	// GetObject is lazy; Stat issues the request and surfaces missing keys.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, f.mapError(key, err)
	}
	return obj, nil
}

func (f *Fetcher) mapError(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return fmt.Errorf("%w: %s/%s", source.ErrNotFound, f.bucket, key)
	default:
		return fmt.Errorf("get %s/%s: %w", f.bucket, key, err)
	}
}
