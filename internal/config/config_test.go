package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/stabilizer"
)

func envOf(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silexa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2*time.Second, cfg.Stabilizer.Cooldown)
	assert.Equal(t, stabilizer.PolicyBoth, cfg.Policy())
	assert.Equal(t, classifier.KindForest, cfg.Params().Kind)
	assert.Equal(t, uint64(42), cfg.Params().Seed)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	t.Setenv(EnvFile, "")
	path := writeConfig(t, `
dataset:
  path: /srv/silexa/gestures.csv
model:
  path: /srv/silexa/model.slxm
  kind: centroid
  trees: 10
stabilizer:
  cooldown: 1500ms
  policy: either
server:
  addr: 127.0.0.1:9000
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/silexa/gestures.csv", cfg.Dataset.Path)
	assert.Equal(t, "/srv/silexa/model.slxm", cfg.Model.Path)
	assert.Equal(t, classifier.KindCentroid, cfg.Model.Kind)
	assert.Equal(t, 10, cfg.Model.Trees)
	assert.Equal(t, 1500*time.Millisecond, cfg.Stabilizer.Cooldown)
	assert.Equal(t, stabilizer.PolicyEither, cfg.Policy())
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.True(t, cfg.Log.Pretty)

	// untouched keys keep their defaults
	assert.Equal(t, 0.2, cfg.Model.TestFraction)
	assert.Equal(t, "data/history.db", cfg.History.Path)
}

func TestLoad_EnvFileVariable(t *testing.T) {
	path := writeConfig(t, "model:\n  path: from-env-file.slxm\n")
	t.Setenv(EnvFile, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env-file.slxm", cfg.Model.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "dataset: [unclosed"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envOf(map[string]string{
		"SILEXA_DATASET_PATH":   "d.csv",
		"SILEXA_MODEL_PATH":     "m.slxm",
		"SILEXA_COOLDOWN":       "3",
		"SILEXA_POLICY":         "either",
		"SILEXA_MODEL_TREES":    "25",
		"SILEXA_MODEL_SEED":     "7",
		"SILEXA_METRICS":        "false",
		"SILEXA_CAMERA_ENABLED": "true",
		"SILEXA_LOG_LEVEL":      "warn",
	}))
	require.NoError(t, err)

	assert.Equal(t, "d.csv", cfg.Dataset.Path)
	assert.Equal(t, "m.slxm", cfg.Model.Path)
	assert.Equal(t, 3*time.Second, cfg.Stabilizer.Cooldown)
	assert.Equal(t, "either", cfg.Stabilizer.Policy)
	assert.Equal(t, 25, cfg.Model.Trees)
	assert.Equal(t, uint64(7), cfg.Model.Seed)
	assert.False(t, cfg.Server.Metrics)
	assert.True(t, cfg.Camera.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnv_BadValues(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envOf(map[string]string{
		"SILEXA_COOLDOWN":    "soon",
		"SILEXA_MODEL_TREES": "many",
		"SILEXA_METRICS":     "maybe",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SILEXA_COOLDOWN")
	assert.Contains(t, err.Error(), "SILEXA_MODEL_TREES")
	assert.Contains(t, err.Error(), "SILEXA_METRICS")
}

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"2":     2 * time.Second,
		"0.5":   500 * time.Millisecond,
		"750ms": 750 * time.Millisecond,
		" 1m ":  time.Minute,
	}
	for in, want := range tests {
		got, err := parseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cooldown", func(c *Config) { c.Stabilizer.Cooldown = 0 }},
		{"negative cooldown", func(c *Config) { c.Stabilizer.Cooldown = -time.Second }},
		{"unknown policy", func(c *Config) { c.Stabilizer.Policy = "sometimes" }},
		{"unknown kind", func(c *Config) { c.Model.Kind = "svm" }},
		{"empty dataset path", func(c *Config) { c.Dataset.Path = " " }},
		{"empty model path", func(c *Config) { c.Model.Path = "" }},
		{"test fraction 0", func(c *Config) { c.Model.TestFraction = 0 }},
		{"test fraction 1", func(c *Config) { c.Model.TestFraction = 1 }},
		{"zero fps", func(c *Config) { c.Camera.FPS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
