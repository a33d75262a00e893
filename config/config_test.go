package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, KindDir, cfg.Source.Kind)
	assert.Equal(t, ".", cfg.Source.Dir.Path)
	assert.Equal(t, "home.map.bin", cfg.Stores.Map)
	assert.Equal(t, "home.tags.bin", cfg.Stores.Tags)
	assert.Equal(t, "home.index.bin", cfg.Stores.Index)
	assert.Equal(t, 2048, cfg.PreviewBytes)
	assert.Equal(t, 4, cfg.Concurrency)
	require.NoError(t, cfg.Validate())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
source:
  kind: oci
  oci:
    ref: ghcr.io/acme/home:v1
    plain_http: true
stores:
  index: previews.bin
cache_dir: /var/cache/homemap
concurrency: 8
rate_limit: 1048576
log_level: debug
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, KindOCI, cfg.Source.Kind)
	assert.Equal(t, "ghcr.io/acme/home:v1", cfg.Source.OCI.Ref)
	assert.True(t, cfg.Source.OCI.PlainHTTP)
	assert.Equal(t, "home.map.bin", cfg.Stores.Map, "unset fields keep defaults")
	assert.Equal(t, "previews.bin", cfg.Stores.Index)
	assert.Equal(t, "/var/cache/homemap", cfg.CacheDir)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 1<<20, cfg.RateLimit)

	names := cfg.StoreNames()
	assert.Equal(t, "previews.bin", names.Index)
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("source: [unterminated"))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown kind", func(c *Config) { c.Source.Kind = "ftp" }, "source.kind"},
		{"dir without path", func(c *Config) { c.Source.Dir.Path = "" }, "source.dir.path"},
		{"http without url", func(c *Config) { c.Source.Kind = KindHTTP }, "source.http.url"},
		{"oci without ref", func(c *Config) { c.Source.Kind = KindOCI }, "source.oci.ref"},
		{"oci token and user", func(c *Config) {
			c.Source.Kind = KindOCI
			c.Source.OCI.Ref = "ghcr.io/a/b"
			c.Source.OCI.Token = "t"
			c.Source.OCI.Username = "u"
		}, "mutually exclusive"},
		{"minio without bucket", func(c *Config) {
			c.Source.Kind = KindMinIO
			c.Source.MinIO.Endpoint = "localhost:9000"
		}, "source.minio.bucket"},
		{"s3 without bucket", func(c *Config) { c.Source.Kind = KindS3 }, "source.s3.bucket"},
		{"no map store", func(c *Config) { c.Stores.Map = "" }, "stores.map"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"negative preview", func(c *Config) { c.PreviewBytes = -1 }, "preview_bytes"},
		{"negative cache", func(c *Config) { c.CacheMaxBytes = -1 }, "cache_max_bytes"},
		{"negative rate limit", func(c *Config) { c.RateLimit = -1 }, "rate_limit"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Stores.Map = ""
	cfg.Concurrency = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stores.map")
	assert.Contains(t, err.Error(), "concurrency")
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HOMEMAP_TEST_TOKEN", "s3cret")

	cfg, err := Parse([]byte(`
source:
  kind: http
  http:
    url: ${HOMEMAP_TEST_BASE:-https://example.com/data}
    headers:
      Authorization: Bearer ${HOMEMAP_TEST_TOKEN}
`))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/data", cfg.Source.HTTP.URL)
	assert.Equal(t, "Bearer s3cret", cfg.Source.HTTP.Headers["Authorization"])
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	flagPath := filepath.Join(dir, "flag.yaml")
	envPath := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(flagPath, []byte("preview_bytes: 100\n"), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte("preview_bytes: 200\n"), 0o600))

	t.Setenv(EnvVar, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	t.Setenv(EnvVar, envPath)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.PreviewBytes)

	cfg, err = Load(flagPath)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.PreviewBytes, "flag wins over environment")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}
