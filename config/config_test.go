package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grampus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 16\ntimeout: 5s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 16, cfg.Workers)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	// unset fields keep their defaults
	require.Equal(t, Default().ForestSize, cfg.ForestSize)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grampus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus_field: 1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveWorkers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grampus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grampus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: not-a-duration\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
