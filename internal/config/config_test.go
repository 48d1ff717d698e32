package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		orig, had := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() {
			if had {
				os.Setenv(k, orig)
			}
		})
	}
}

func TestLoad_DefaultsWhenEnvUnset(t *testing.T) {
	clearEnv(t, "DATA_DIR", "LOG_LEVEL", "PORT", "DEV_MODE", "SIGNALS_DIR", "COLLECTION_INTERVAL_SECONDS")

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 3600, cfg.CollectionIntervalSeconds)
}

func TestValidate_RejectsInvalidPort(t *testing.T) {
	cfg := &Config{Port: 0, CollectionIntervalSeconds: 60, DataDir: "data"}
	assert.Error(t, cfg.Validate())

	cfg.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveCollectionInterval(t *testing.T) {
	cfg := &Config{Port: 8080, CollectionIntervalSeconds: 0, DataDir: "data"}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsEmptyDataDir(t *testing.T) {
	cfg := &Config{Port: 8080, CollectionIntervalSeconds: 60, DataDir: ""}
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := &Config{Port: 8080, CollectionIntervalSeconds: 60, DataDir: "data"}
	assert.NoError(t, cfg.Validate())
}

func TestResolveSignalsDir_ExplicitEnvWins(t *testing.T) {
	clearEnv(t, "SIGNALS_DIR")
	require.NoError(t, os.Setenv("SIGNALS_DIR", "/custom/signals"))
	assert.Equal(t, "/custom/signals", resolveSignalsDir())
}

func TestResolveSignalsDir_FallsBackToRepoRelativeDefault(t *testing.T) {
	clearEnv(t, "SIGNALS_DIR")
	assert.Equal(t, defaultSignalsDir, resolveSignalsDir())
}

func TestGetEnvAsBool_AcceptsYesNoAndStrconvForms(t *testing.T) {
	clearEnv(t, "FLAG")
	require.NoError(t, os.Setenv("FLAG", "yes"))
	assert.True(t, getEnvAsBool("FLAG", false))

	require.NoError(t, os.Setenv("FLAG", "no"))
	assert.False(t, getEnvAsBool("FLAG", true))

	require.NoError(t, os.Setenv("FLAG", "true"))
	assert.True(t, getEnvAsBool("FLAG", false))

	require.NoError(t, os.Setenv("FLAG", "garbage"))
	assert.Equal(t, true, getEnvAsBool("FLAG", true), "unparseable value should fall back")
}

func TestGetEnvAsInt_FallsBackOnUnparseable(t *testing.T) {
	clearEnv(t, "NUM")
	require.NoError(t, os.Setenv("NUM", "notanumber"))
	assert.Equal(t, 42, getEnvAsInt("NUM", 42))

	require.NoError(t, os.Setenv("NUM", "7"))
	assert.Equal(t, 7, getEnvAsInt("NUM", 42))
}

func TestLoad_MalformedEnvFileErrors(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// godotenv errors on an unterminated quoted value.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(`FOO="unterminated`), 0o644))

	_, err = Load()
	assert.Error(t, err)
}
