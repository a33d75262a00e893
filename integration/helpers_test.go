//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/meigma/homemap/internal/testutil"
)

const (
	minioUser     = "homemap"
	minioPassword = "homemap-secret"
)

var testFiles = []testutil.TestFile{
	{Path: "docs/readme.md", Size: 120, Mime: "text/markdown", Preview: []byte("# Home")},
	{Path: "docs/notes/todo.txt", Size: 33, Mime: "text/plain", Preview: []byte("buy milk")},
	{Path: "photos/cat.jpg", Size: 40960, Mime: "image/jpeg"},
}

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error

	minioOnce sync.Once
	minioAddr string
	minioErr  error
)

func skipWithoutDocker(tb testing.TB) {
	tb.Helper()
	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}
}

// getRegistry returns the shared registry address, starting the container if needed.
func getRegistry(tb testing.TB) string {
	tb.Helper()
	skipWithoutDocker(tb)

	registryOnce.Do(func() {
		registryAddr, registryErr = startContainer(context.Background(), testcontainers.ContainerRequest{
			Image:        "registry:2",
			ExposedPorts: []string{"5000/tcp"},
			WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
		}, "5000/tcp")
	})
	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}
	return registryAddr
}

// getMinIO returns the shared MinIO address, starting the container if needed.
func getMinIO(tb testing.TB) string {
	tb.Helper()
	skipWithoutDocker(tb)

	minioOnce.Do(func() {
		minioAddr, minioErr = startContainer(context.Background(), testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStatusCodeMatcher(isOKStatus),
		}, "9000/tcp")
	})
	if minioErr != nil {
		tb.Fatalf("start minio container: %v", minioErr)
	}
	return minioAddr
}

// startContainer starts req and returns the host:port mapped to port.
// Containers are cleaned up by the testcontainers reaper.
func startContainer(ctx context.Context, req testcontainers.ContainerRequest, port string) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start %s: %w", req.Image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve %s host: %w", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return "", fmt.Errorf("resolve %s port: %w", req.Image, err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}
