//go:build integration

// Package integration contains end-to-end tests that load home map stores
// from real backends started in containers.
//
// Run with: go test -tags integration ./integration/...
// Set SKIP_DOCKER_TESTS=1 to skip when Docker is unavailable.
package integration
