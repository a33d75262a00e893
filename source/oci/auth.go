package oci

import (
	"context"
	"errors"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// DockerCredentials returns a credential store that reads from the Docker
// config (~/.docker/config.json) and its credential helpers.
func DockerCredentials() (credentials.Store, error) {
	store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		return nil, err
	}
	return &dockerHubFallbackStore{store: store}, nil
}

// StaticCredentials returns a read-only credential store holding a single
// username and password for registry.
func StaticCredentials(registry, username, password string) credentials.Store {
	return &staticStore{
		registry: normalizeServerAddress(registry),
		cred:     auth.Credential{Username: username, Password: password},
	}
}

// StaticToken returns a read-only credential store holding a bearer token
// for registry.
func StaticToken(registry, token string) credentials.Store {
	return &staticStore{
		registry: normalizeServerAddress(registry),
		cred:     auth.Credential{AccessToken: token},
	}
}

type staticStore struct {
	registry string
	cred     auth.Credential
}

func (s *staticStore) Get(_ context.Context, serverAddress string) (auth.Credential, error) {
	server := normalizeServerAddress(serverAddress)
	if server == s.registry || (isDockerHubHost(server) && isDockerHubHost(s.registry)) {
		return s.cred, nil
	}
	return auth.EmptyCredential, nil
}

func (s *staticStore) Put(context.Context, string, auth.Credential) error {
	return errors.New("static credential store is read-only")
}

func (s *staticStore) Delete(context.Context, string) error {
	return errors.New("static credential store is read-only")
}

// dockerHubFallbackStore retries Docker Hub lookups under the legacy
// hostnames docker login may have written.
type dockerHubFallbackStore struct {
	store credentials.Store
}

func (s *dockerHubFallbackStore) Get(ctx context.Context, serverAddress string) (auth.Credential, error) {
	cred, err := s.store.Get(ctx, serverAddress)
	if err == nil && !isEmptyCredential(cred) {
		return cred, nil
	}
	for _, alt := range dockerHubFallbacks(serverAddress) {
		if alt == serverAddress {
			continue
		}
		if altCred, altErr := s.store.Get(ctx, alt); altErr == nil && !isEmptyCredential(altCred) {
			return altCred, nil
		}
	}
	return cred, err
}

func (s *dockerHubFallbackStore) Put(ctx context.Context, serverAddress string, cred auth.Credential) error {
	return s.store.Put(ctx, serverAddress, cred)
}

func (s *dockerHubFallbackStore) Delete(ctx context.Context, serverAddress string) error {
	return s.store.Delete(ctx, serverAddress)
}

func dockerHubFallbacks(serverAddress string) []string {
	if !isDockerHubHost(normalizeServerAddress(serverAddress)) {
		return nil
	}
	return []string{
		"https://index.docker.io/v1/",
		"index.docker.io",
		"registry-1.docker.io",
		"docker.io",
	}
}

func isDockerHubHost(hostport string) bool {
	switch extractHost(hostport) {
	case "docker.io", "registry-1.docker.io", "index.docker.io":
		return true
	default:
		return false
	}
}

// extractHost strips the port from host[:port], keeping IPv6 brackets.
func extractHost(hostport string) string {
	if strings.HasPrefix(hostport, "[") {
		if idx := strings.LastIndex(hostport, "]"); idx != -1 {
			return hostport[:idx+1]
		}
		return hostport
	}
	if idx := strings.LastIndex(hostport, ":"); idx != -1 {
		return hostport[:idx]
	}
	return hostport
}

// normalizeServerAddress reduces a server address to host[:port].
func normalizeServerAddress(addr string) string {
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr, _, _ = strings.Cut(addr, "/")
	return addr
}

func isEmptyCredential(cred auth.Credential) bool {
	return cred == auth.EmptyCredential ||
		(cred.Username == "" && cred.Password == "" && cred.AccessToken == "" && cred.RefreshToken == "")
}
