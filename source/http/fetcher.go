// Package http fetches homemap store files over plain HTTP(S), such as from
// a static site or a raw file host.
package http //nolint:revive // intentional naming for domain clarity

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/meigma/homemap/source"
)

// Fetcher resolves names against a base URL and issues GET requests.
type Fetcher struct {
	base    *url.URL
	client  *nethttp.Client
	headers nethttp.Header
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(f *Fetcher) {
		if headers == nil {
			return
		}
		f.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		if f.headers == nil {
			f.headers = make(nethttp.Header)
		}
		f.headers.Set(key, value)
	}
}

// New creates a Fetcher rooted at baseURL. Names passed to Fetch are
// resolved relative to it, so "https://host/data" and "https://host/data/"
// behave the same.
func New(baseURL string, opts ...Option) (*Fetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	f := &Fetcher{
		base:   u,
		client: nethttp.DefaultClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = nethttp.DefaultClient
	}
	return f, nil
}

// URL returns the absolute URL name resolves to.
func (f *Fetcher) URL(name string) string {
	return f.base.JoinPath(name).String()
}

// Fetch issues a GET for name. A 404 or 410 response reports
// source.ErrNotFound. The returned body must be closed by the caller.
func (f *Fetcher) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == "" || strings.HasPrefix(name, "/") {
		return nil, fmt.Errorf("fetch %q: name must be relative", name)
	}
	req, err := f.newRequest(ctx, f.URL(name))
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case nethttp.StatusOK:
		return &bodyReadCloser{body: resp.Body}, nil
	case nethttp.StatusNotFound, nethttp.StatusGone:
		drain(resp.Body)
		return nil, fmt.Errorf("%w: %s", source.ErrNotFound, name)
	case nethttp.StatusPartialContent:
		drain(resp.Body)
		return nil, errors.New("server returned partial content for a full request")
	default:
		drain(resp.Body)
		return nil, fmt.Errorf("fetch %s: %s", name, resp.Status)
	}
}

// newRequest creates a GET request with configured headers.
func (f *Fetcher) newRequest(ctx context.Context, target string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, target, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range f.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return req, nil
}

// bodyReadCloser drains the response body on close to enable connection reuse.
type bodyReadCloser struct {
	body io.ReadCloser
}

func (r *bodyReadCloser) Read(p []byte) (int, error) {
	return r.body.Read(p)
}

func (r *bodyReadCloser) Close() error {
	_, _ = io.Copy(io.Discard, r.body) //nolint:errcheck // best-effort drain for connection reuse
	return r.body.Close()
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body) //nolint:errcheck // best-effort drain for connection reuse
	_ = body.Close()
}
