package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mc1.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5555, cfg.Engine.Port)
	assert.Equal(t, "localhost", cfg.Engine.Host)
	assert.Equal(t, ".build/default", cfg.Engine.BuildDir)
	assert.Equal(t, "default", cfg.Engine.Preset)
	assert.Equal(t, "engine", cfg.Engine.Binary)
	assert.Empty(t, cfg.DB)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
engine:
  port: 6000
  preset: release
db: patches.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Engine.Port)
	assert.Equal(t, "release", cfg.Engine.Preset)
	assert.Equal(t, ".build/default", cfg.Engine.BuildDir, "unset keys keep defaults")
	assert.Equal(t, "patches.db", cfg.DB)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key": "engine:\n  prot: 1\n",
		"bad port":    "engine:\n  port: 70000\n",
		"zero port":   "engine:\n  port: 0\n",
		"empty dir":   "engine:\n  build_dir: \"\"\n",
		"empty host":  "engine:\n  host: \"\"\n",
		"syntax":      "engine: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
