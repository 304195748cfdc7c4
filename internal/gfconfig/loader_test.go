package gfconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gitfilter/gitfilter/internal/gfconfig"
)

func TestLoadConfigEmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte(""), 0o600))

	cfg, err := gfconfig.LoadConfig(emptyPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, gfconfig.DefaultBranch, cfg.Branch)
	assert.Equal(t, gfconfig.DefaultWithBlobs, cfg.WithBlobs)
	assert.Equal(t, gfconfig.DefaultNumThreads, cfg.NumThreads)
	assert.Equal(t, gfconfig.DefaultBufferDepth, cfg.BufferDepth)
	assert.Equal(t, gfconfig.DefaultReportFormat, cfg.Report.Format)
	assert.Equal(t, gfconfig.DefaultExporter, cfg.Telemetry.Exporter)
}

func TestLoadConfigOverridesFromYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "gitfilter.yaml")
	raw := []byte(`
branch: refs/heads/main
with_blobs: false
num_threads: 4
buffer_depth: 16
rules:
  path: rules.yaml
report:
  format: html
telemetry:
  exporter: prometheus
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	cfg, err := gfconfig.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "refs/heads/main", cfg.Branch)
	assert.False(t, cfg.WithBlobs)
	assert.Equal(t, 4, cfg.NumThreads)
	assert.Equal(t, 16, cfg.BufferDepth)
	assert.Equal(t, "rules.yaml", cfg.Rules.Path)
	assert.Equal(t, "html", cfg.Report.Format)
	assert.Equal(t, "prometheus", cfg.Telemetry.Exporter)
}

func TestLoadConfigRejectsInvalidBufferDepth(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buffer_depth: 0\n"), 0o600))

	_, err := gfconfig.LoadConfig(path)
	assert.ErrorIs(t, err, gfconfig.ErrInvalidBufferDepth)
}

func TestLoadConfigRejectsInvalidExporter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telemetry:\n  exporter: carrier-pigeon\n"), 0o600))

	_, err := gfconfig.LoadConfig(path)
	assert.ErrorIs(t, err, gfconfig.ErrInvalidExporter)
}
