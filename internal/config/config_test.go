package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir: /var/lib/aurora
listen: 0.0.0.0:8080
sync_writes: true
trajectory:
  window: 40
  tie_epsilon: 0.05
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/aurora", cfg.DataDir)
	assert.Equal(t, "0.0.0.0:8080", cfg.Listen)
	assert.True(t, cfg.SyncWrites)
	assert.Equal(t, 40, cfg.Trajectory.Window)
	assert.InDelta(t, 0.05, cfg.Trajectory.TieEpsilon, 1e-9)
	assert.Equal(t, Default().RegistryPath, cfg.RegistryPath, "unset keys keep defaults")
}

func TestLoadRejectsEmptyRequiredFields(t *testing.T) {
	path := writeConfig(t, `data_dir: ""`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "data_dir")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "data_dir: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}
