// Package config loads homemap CLI configuration from a YAML file.
//
// The file is located by the --config flag or, failing that, the
// HOMEMAP_CONFIG environment variable. Without either, defaults apply: the
// three stores are read from the current directory.
//
// String values may reference environment variables as ${VAR} or
// ${VAR:-default}, which keeps credentials out of the file itself.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/meigma/homemap"
	"github.com/meigma/homemap/source"
)

// EnvVar names the environment variable consulted for the config path.
const EnvVar = "HOMEMAP_CONFIG"

// ErrInvalid is returned by Validate for unusable configuration.
var ErrInvalid = errors.New("config: invalid")

// Source kinds.
const (
	KindDir   = "dir"
	KindHTTP  = "http"
	KindOCI   = "oci"
	KindMinIO = "minio"
	KindS3    = "s3"
)

// Config is the CLI configuration.
type Config struct {
	// Source selects where store files come from.
	Source SourceConfig `yaml:"source"`

	// Stores names the three store files relative to the source.
	Stores StoresConfig `yaml:"stores"`

	// CacheDir enables the on-disk part cache when set.
	CacheDir string `yaml:"cache_dir"`

	// CacheMaxBytes bounds the part cache. Zero means unlimited.
	CacheMaxBytes int64 `yaml:"cache_max_bytes"`

	// Concurrency bounds parallel part fetches per store.
	// Default: 4
	Concurrency int `yaml:"concurrency"`

	// RateLimit caps fetch throughput in bytes per second. Zero means
	// unlimited.
	RateLimit int `yaml:"rate_limit"`

	// PreviewBytes is the default preview length.
	// Default: 2048
	PreviewBytes int `yaml:"preview_bytes"`

	// LogLevel is one of debug, info, warn, error.
	// Default: warn
	LogLevel string `yaml:"log_level"`
}

// SourceConfig selects and configures one fetcher.
type SourceConfig struct {
	// Kind is one of dir, http, oci, minio, s3.
	Kind string `yaml:"kind"`

	Dir   DirConfig   `yaml:"dir"`
	HTTP  HTTPConfig  `yaml:"http"`
	OCI   OCIConfig   `yaml:"oci"`
	MinIO MinIOConfig `yaml:"minio"`
	S3    S3Config    `yaml:"s3"`
}

// DirConfig reads stores from a local directory.
type DirConfig struct {
	Path string `yaml:"path"`
	// MMap maps unsplit store files instead of reading them.
	MMap bool `yaml:"mmap"`
}

// HTTPConfig reads stores from a base URL.
type HTTPConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// OCIConfig reads stores from the layers of an OCI artifact.
type OCIConfig struct {
	Ref          string `yaml:"ref"`
	PlainHTTP    bool   `yaml:"plain_http"`
	DockerConfig bool   `yaml:"docker_config"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Token        string `yaml:"token"`
}

// MinIOConfig reads stores from an S3-compatible endpoint.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
}

// S3Config reads stores from AWS S3.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// StoresConfig names the store files.
type StoresConfig struct {
	Map   string `yaml:"map"`
	Tags  string `yaml:"tags"`
	Index string `yaml:"index"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	stores := source.DefaultStores()
	return &Config{
		Source: SourceConfig{
			Kind: KindDir,
			Dir:  DirConfig{Path: "."},
		},
		Stores: StoresConfig{
			Map:   stores.Map,
			Tags:  stores.Tags,
			Index: stores.Index,
		},
		Concurrency:  4,
		PreviewBytes: homemap.DefaultPreviewBytes,
		LogLevel:     "warn",
	}
}

// Load resolves the config path from flagPath or HOMEMAP_CONFIG and loads
// it. With neither set it returns Default.
func Load(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults and expands ${VAR} references.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-chosen config path
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and expands ${VAR} references.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// Validate checks the configuration for errors. Every problem is reported,
// each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch c.Source.Kind {
	case KindDir:
		if c.Source.Dir.Path == "" {
			invalid("source.dir.path is required")
		}
	case KindHTTP:
		if c.Source.HTTP.URL == "" {
			invalid("source.http.url is required")
		}
	case KindOCI:
		if c.Source.OCI.Ref == "" {
			invalid("source.oci.ref is required")
		}
		if c.Source.OCI.Token != "" && c.Source.OCI.Username != "" {
			invalid("source.oci: token and username are mutually exclusive")
		}
	case KindMinIO:
		if c.Source.MinIO.Endpoint == "" {
			invalid("source.minio.endpoint is required")
		}
		if c.Source.MinIO.Bucket == "" {
			invalid("source.minio.bucket is required")
		}
	case KindS3:
		if c.Source.S3.Bucket == "" {
			invalid("source.s3.bucket is required")
		}
	default:
		invalid("source.kind %q is not one of dir, http, oci, minio, s3", c.Source.Kind)
	}

	if c.Stores.Map == "" {
		invalid("stores.map is required")
	}
	if c.Concurrency < 1 {
		invalid("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.PreviewBytes < 0 {
		invalid("preview_bytes must be >= 0, got %d", c.PreviewBytes)
	}
	if c.RateLimit < 0 {
		invalid("rate_limit must be >= 0, got %d", c.RateLimit)
	}
	if c.CacheMaxBytes < 0 {
		invalid("cache_max_bytes must be >= 0, got %d", c.CacheMaxBytes)
	}
	if _, err := c.Level(); err != nil {
		invalid("log_level: %v", err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, err
	}
	return level, nil
}

// StoreNames converts Stores for the loader.
func (c *Config) StoreNames() source.Stores {
	return source.Stores{
		Map:   c.Stores.Map,
		Tags:  c.Stores.Tags,
		Index: c.Stores.Index,
	}
}

func (c *Config) expandVariables() {
	for _, s := range []*string{
		&c.CacheDir,
		&c.Source.Dir.Path,
		&c.Source.HTTP.URL,
		&c.Source.OCI.Ref,
		&c.Source.OCI.Username,
		&c.Source.OCI.Password,
		&c.Source.OCI.Token,
		&c.Source.MinIO.Endpoint,
		&c.Source.MinIO.AccessKey,
		&c.Source.MinIO.SecretKey,
		&c.Source.S3.Endpoint,
		&c.Source.S3.AccessKeyID,
		&c.Source.S3.SecretAccessKey,
	} {
		*s = expandVars(*s)
	}
	for k, v := range c.Source.HTTP.Headers {
		c.Source.HTTP.Headers[k] = expandVars(v)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}
