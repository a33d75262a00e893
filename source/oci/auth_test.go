package oci

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/registry/remote/auth"
)

func TestStaticCredentials(t *testing.T) {
	t.Parallel()

	store := StaticCredentials("https://ghcr.io/", "user", "pass")

	tests := []struct {
		name   string
		server string
		want   auth.Credential
	}{
		{"exact host", "ghcr.io", auth.Credential{Username: "user", Password: "pass"}},
		{"with scheme", "https://ghcr.io/v2/", auth.Credential{Username: "user", Password: "pass"}},
		{"other host", "quay.io", auth.EmptyCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := store.Get(context.Background(), tt.server)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	require.Error(t, store.Put(context.Background(), "ghcr.io", auth.Credential{}))
	require.Error(t, store.Delete(context.Background(), "ghcr.io"))
}

func TestStaticTokenDockerHubAliases(t *testing.T) {
	t.Parallel()

	store := StaticToken("docker.io", "tok")
	for _, server := range []string{"docker.io", "registry-1.docker.io", "index.docker.io:443"} {
		got, err := store.Get(context.Background(), server)
		require.NoError(t, err)
		assert.Equal(t, "tok", got.AccessToken, server)
	}
}

func TestExtractHost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "localhost", extractHost("localhost:5000"))
	assert.Equal(t, "[::1]", extractHost("[::1]:5000"))
	assert.Equal(t, "ghcr.io", extractHost("ghcr.io"))
}
