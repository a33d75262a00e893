package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/homemap/source"
)

func TestDatasetRoundTrip(t *testing.T) {
	t.Parallel()

	for _, partSize := range []int{0, 1024} {
		ds, err := makeDataset(200, 4, 64, 1)
		require.NoError(t, err)

		dir := t.TempDir()
		stores := source.DefaultStores()
		require.NoError(t, ds.write(dir, stores, partSize))

		for _, mode := range []string{"lookup", "stat", "preview", "count-prefix", "list-prefix", "read-dir", "load"} {
			cfg := config{
				mode:        mode,
				iterations:  5,
				previewSize: 64,
				prefix:      "dir01",
				readRandom:  true,
				randomSeed:  1,
				duration:    time.Second,
			}
			stats, err := runProfile(context.Background(), cfg, ds, dir, stores)
			require.NoError(t, err, "mode %s part size %d", mode, partSize)
			assert.Equal(t, 5, stats.ops)
			assert.Positive(t, stats.bytes, "mode %s", mode)
		}
	}
}

func TestRunProfileUnknownMode(t *testing.T) {
	t.Parallel()

	ds, err := makeDataset(10, 2, 8, 1)
	require.NoError(t, err)
	dir := t.TempDir()
	stores := source.DefaultStores()
	require.NoError(t, ds.write(dir, stores, 0))

	_, err = runProfile(context.Background(), config{mode: "nope", iterations: 1}, ds, dir, stores)
	require.ErrorContains(t, err, "unknown mode")
}

func TestMakeDatasetRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := makeDataset(0, 1, 8, 1)
	require.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	cfg, err := parseFlags([]string{"--mode", "load", "--part-size", "4096", "--files", "10"})
	require.NoError(t, err)
	assert.Equal(t, "load", cfg.mode)
	assert.Equal(t, 4096, cfg.partSize)
	assert.Equal(t, 10, cfg.files)

	_, err = parseFlags([]string{"--preview-size", "-1"})
	require.Error(t, err)
}
