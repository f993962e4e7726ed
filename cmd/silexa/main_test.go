package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/silexa/internal/classifier"
)

func TestBrowserURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", browserURL(":8080"))
	assert.Equal(t, "http://127.0.0.1:9000", browserURL("127.0.0.1:9000"))
}

func TestModelStatus_NotLoaded(t *testing.T) {
	assert.Equal(t, "Model: not loaded", modelStatus(classifier.NewHandle()))
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "model.slxm")
	require.NoError(t, ensureDir(path))
	assert.DirExists(t, filepath.Join(dir, "a", "b"))
	require.NoError(t, ensureDir("model.slxm"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SILEXA_LOG_LEVEL", "debug")
	t.Setenv("SILEXA_ADDR", ":9999")

	cfg, err := loadConfig("test", nil)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}
