package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	s := NewDefaults()
	assert.Equal(t, 1, s.Version)
	assert.Equal(t, 600, s.TaskTimeoutSec)
	assert.Equal(t, 2000, s.MaxLogLines)
	assert.NotEmpty(t, s.DataDir)
}

func TestLoadFromFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"taskTimeoutSec":30,"dataDir":"/tmp/x"}`), 0o600))

	s, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 30, s.TaskTimeoutSec)
	assert.Equal(t, "/tmp/x", s.DataDir)
	// Unspecified fields keep defaults.
	assert.Equal(t, 2000, s.MaxLogLines)
}

func TestLoadFromFile_RefusesUnsafePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1}`), 0o600))
	require.NoError(t, os.Chmod(path, 0o666)) // WriteFile perms pass through umask

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsafe permissions")
}

func TestLoadFromFile_BadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{nope`), 0o600))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, NewDefaults().TaskTimeoutSec, s.TaskTimeoutSec)
}
