package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "profiler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadWithOverrides_ConfigFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	path := writeConfigFile(t, `
combinationsPerPass: 250
surpriseThreshold: 0.6
transport: http
httpBearerToken: from-file
`)

	cfg, err := LoadWithOverrides(Overrides{ConfigFile: &path})
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.CombinationsPerPass)
	assert.Equal(t, 0.6, cfg.SurpriseThreshold)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, "from-file", cfg.HTTPBearerToken)
}

func TestLoadWithOverrides_EnvOverridesFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("COMBINATIONS_PER_PASS", "400")

	path := writeConfigFile(t, `combinationsPerPass: 250`)

	cfg, err := LoadWithOverrides(Overrides{ConfigFile: &path})
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.CombinationsPerPass)
}

func TestLoadWithOverrides_FlagOverridesEnvAndFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("COMBINATIONS_PER_PASS", "400")

	path := writeConfigFile(t, `combinationsPerPass: 250`)
	flagValue := 700

	cfg, err := LoadWithOverrides(Overrides{ConfigFile: &path, CombinationsPerPass: &flagValue})
	require.NoError(t, err)
	assert.Equal(t, 700, cfg.CombinationsPerPass)
}

func TestLoadWithOverrides_InvalidCombinationsPerPassInFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	path := writeConfigFile(t, `combinationsPerPass: 1`)

	_, err := LoadWithOverrides(Overrides{ConfigFile: &path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "combinationsPerPass")
}

func TestLoadWithOverrides_MissingFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := LoadWithOverrides(Overrides{ConfigFile: &path})
	require.Error(t, err)
}
