package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RELATIONS_CONFIG", "")
	for _, k := range []string{"DB", "MEMORY", "LOG_LEVEL", "LOG_JSON", "COOLDOWN_TTL", "USER"} {
		t.Setenv(EnvPrefix+"_"+k, "")
		os.Unsetenv(EnvPrefix + "_" + k)
	}
	os.Unsetenv("RELATIONS_CONFIG")
	return home
}

func TestDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".relations", "subjects.db"), cfg.DB)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.CooldownTTL)
	assert.Equal(t, "local", cfg.User)
	assert.False(t, cfg.Memory)
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("RELATIONS_DB", "/tmp/x.db")
	t.Setenv("RELATIONS_LOG_LEVEL", "debug")
	t.Setenv("RELATIONS_COOLDOWN_TTL", "2m")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DB)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.CooldownTTL)
}

func TestConfigFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".relations")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
log_level = "info"
cooldown_ttl = "30s"
user = "maja"
`), 0o644))

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.CooldownTTL)
	assert.Equal(t, "maja", cfg.User)

	// Environment beats the file.
	t.Setenv("RELATIONS_USER", "olle")
	cfg, err = Load(New())
	require.NoError(t, err)
	assert.Equal(t, "olle", cfg.User)
}

func TestExplicitConfigPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`memory = true`), 0o644))
	t.Setenv("RELATIONS_CONFIG", path)

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.True(t, cfg.Memory)
}

func TestInvalidCooldown(t *testing.T) {
	isolate(t)
	t.Setenv("RELATIONS_COOLDOWN_TTL", "-1s")

	_, err := Load(New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cooldown_ttl")
}
