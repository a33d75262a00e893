package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/homemap/source"
)

// newFakeS3 serves objects at /<bucket>/<key> the way an S3-compatible
// server answers path-style GETs.
func newFakeS3(t *testing.T, objects map[string]string) *httptest.Server {
	t.Helper()
	modified := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message>`+
				`<Key>%s</Key><RequestId>test</RequestId></Error>`, r.URL.Path)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("ETag", `"0123456789abcdef"`)
		w.Header().Set("Last-Modified", modified)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func dialFake(t *testing.T, server *httptest.Server, prefix string) *Fetcher {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	f, err := Dial(Config{
		Endpoint:  u.Host,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
	}, "homes", prefix)
	require.NoError(t, err)
	return f
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	server := newFakeS3(t, map[string]string{"/homes/v1/home.map.bin": "map bytes"})
	f := dialFake(t, server, "v1/")

	rc, err := f.Fetch(context.Background(), "home.map.bin")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "map bytes", string(got))
}

func TestFetcher_NotFound(t *testing.T) {
	t.Parallel()

	server := newFakeS3(t, nil)
	f := dialFake(t, server, "")

	_, err := f.Fetch(context.Background(), "home.map.bin.manifest.json")
	require.ErrorIs(t, err, source.ErrNotFound)
}

func TestFetcher_Key(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "home.map.bin", New(nil, "b", "").Key("home.map.bin"))
	assert.Equal(t, "v1/home.map.bin", New(nil, "b", "v1/").Key("home.map.bin"))
}

func TestDial_InvalidEndpoint(t *testing.T) {
	t.Parallel()

	_, err := Dial(Config{Endpoint: "http://has-scheme:9000"}, "b", "")
	require.Error(t, err)
}
