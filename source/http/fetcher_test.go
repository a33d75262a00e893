package http_test

import (
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/meigma/homemap/source"
	homemaphttp "github.com/meigma/homemap/source/http"
)

func newServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			nethttp.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	server := newServer(t, map[string]string{
		"/data/home.map.bin":                "map bytes",
		"/data/parts/home.index.bin.part_0": "part zero",
	})

	tests := []struct {
		name    string
		base    string
		object  string
		want    string
		wantErr error
	}{
		{name: "base without slash", base: server.URL + "/data", object: "home.map.bin", want: "map bytes"},
		{name: "base with slash", base: server.URL + "/data/", object: "home.map.bin", want: "map bytes"},
		{name: "nested name", base: server.URL + "/data", object: "parts/home.index.bin.part_0", want: "part zero"},
		{name: "missing", base: server.URL + "/data", object: "home.tags.bin", wantErr: source.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := homemaphttp.New(tt.base)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			rc, err := f.Fetch(context.Background(), tt.object)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			defer rc.Close()
			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("Fetch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetcher_Headers(t *testing.T) {
	t.Parallel()

	var sawAuth, sawExtra atomic.Bool
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sawAuth.Store(r.Header.Get("Authorization") == "Bearer token")
		sawExtra.Store(r.Header.Get("X-Extra") == "1")
		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(server.Close)

	headers := nethttp.Header{}
	headers.Set("Authorization", "Bearer token")
	f, err := homemaphttp.New(server.URL,
		homemaphttp.WithHeaders(headers),
		homemaphttp.WithHeader("X-Extra", "1"),
		homemaphttp.WithClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rc, err := f.Fetch(context.Background(), "home.map.bin")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	rc.Close()

	if !sawAuth.Load() {
		t.Fatal("Authorization header not sent")
	}
	if !sawExtra.Load() {
		t.Fatal("X-Extra header not sent")
	}
}

func TestFetcher_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	f, err := homemaphttp.New(server.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = f.Fetch(context.Background(), "home.map.bin")
	if err == nil {
		t.Fatal("Fetch() error = nil, want error")
	}
	if errors.Is(err, source.ErrNotFound) {
		t.Fatalf("Fetch() error = %v, must not be ErrNotFound", err)
	}
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()

	for _, base := range []string{"ftp://host/data", "://bad", "/relative"} {
		if _, err := homemaphttp.New(base); err == nil {
			t.Fatalf("New(%q) error = nil, want error", base)
		}
	}
}

func TestFetcher_RejectsAbsoluteName(t *testing.T) {
	t.Parallel()

	f, err := homemaphttp.New("https://example.invalid/data")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := f.Fetch(context.Background(), "/etc/passwd"); err == nil {
		t.Fatal("Fetch() error = nil, want error")
	}
}

func TestFetcher_WithLoader(t *testing.T) {
	t.Parallel()

	server := newServer(t, map[string]string{
		"/home.index.bin.manifest.json": `{"file":"home.index.bin","parts":["home.index.bin.part_00","home.index.bin.part_01"]}`,
		"/home.index.bin.part_00":       "first-",
		"/home.index.bin.part_01":       "second",
	})
	f, err := homemaphttp.New(server.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := source.NewLoader(f).Load(context.Background(), "home.index.bin")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != "first-second" {
		t.Fatalf("Load() = %q, want %q", got, "first-second")
	}
}
