package oci

import (
	"log/slog"

	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCredentialStore sets the credential store for authentication.
func WithCredentialStore(store credentials.Store) Option {
	return func(f *Fetcher) {
		f.credStore = store
	}
}

// WithStaticCredentials sets a username and password for registry.
func WithStaticCredentials(registry, username, password string) Option {
	return func(f *Fetcher) {
		f.credStore = StaticCredentials(registry, username, password)
	}
}

// WithStaticToken sets a bearer token for registry.
func WithStaticToken(registry, token string) Option {
	return func(f *Fetcher) {
		f.credStore = StaticToken(registry, token)
	}
}

// WithDockerConfig reads credentials from ~/.docker/config.json.
// If the config cannot be loaded the fetcher proceeds without credentials.
func WithDockerConfig() Option {
	return func(f *Fetcher) {
		store, err := DockerCredentials()
		if err != nil {
			return
		}
		f.credStore = store
	}
}

// WithPlainHTTP enables plain HTTP (no TLS) for local registries.
func WithPlainHTTP(enabled bool) Option {
	return func(f *Fetcher) {
		f.plainHTTP = enabled
	}
}

// WithAnonymous disables all authentication.
func WithAnonymous() Option {
	return func(f *Fetcher) {
		f.anonymous = true
	}
}

// WithUserAgent sets the User-Agent header for registry requests.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithTarget reads from target instead of a remote repository. Use it with
// an OCI image layout or an in-memory store.
func WithTarget(target oras.ReadOnlyTarget) Option {
	return func(f *Fetcher) {
		f.target = target
	}
}

// WithLogger sets the logger for manifest resolution.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}
