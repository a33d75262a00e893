// Package s3 fetches homemap store files from an AWS S3 bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/meigma/homemap/source"
)

// GetObjectAPI is the subset of the S3 client the fetcher uses.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher reads objects under a key prefix of one bucket.
type Fetcher struct {
	client GetObjectAPI
	bucket string
	prefix string
}

// New creates a Fetcher. prefix is joined to every name (e.g. "homemap/v2").
func New(client GetObjectAPI, bucket, prefix string) *Fetcher {
	return &Fetcher{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Config selects how NewFromConfig builds its S3 client. Zero fields fall
// back to the AWS default chain.
type Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	UsePathStyle    bool
}

// NewFromConfig loads the default AWS configuration, applies cfg on top,
// and returns a Fetcher for bucket.
func NewFromConfig(ctx context.Context, bucket, prefix string, cfg Config) (*Fetcher, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return New(client, bucket, prefix), nil
}

// Key returns the object key name resolves to.
func (f *Fetcher) Key(name string) string {
	return path.Join(f.prefix, name)
}

// Fetch returns the body of the object for name.
func (f *Fetcher) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	key := f.Key(name)
	resp, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", source.ErrNotFound, f.bucket, key)
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: s3://%s/%s", source.ErrNotFound, f.bucket, key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", f.bucket, key, err)
	}
	return resp.Body, nil
}
