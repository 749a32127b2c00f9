// pkg/config/config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writableConfig(t *testing.T) *Configuration {
	t.Helper()
	base := t.TempDir()
	return &Configuration{
		CatalogsPath: filepath.Join(base, "catalogs"),
		CachePath:    filepath.Join(base, "cache"),
		LogPath:      filepath.Join(base, "logs"),
		ReportPath:   filepath.Join(base, "reports"),
	}
}

func TestLoadConfigFillsUnsetFieldsWithDefaults(t *testing.T) {
	// Only the directories are set; everything else comes from the defaults.
	base := t.TempDir()
	path := filepath.Join(base, "Config.yaml")
	seed := writableConfig(t)
	require.NoError(t, SaveConfig(seed, path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultOverallTimeoutSeconds, cfg.OverallTimeoutSeconds)
	assert.Equal(t, DefaultIdleTimeoutSeconds, cfg.IdleTimeoutSeconds)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "cyan", cfg.Theme.Accent)
	assert.Equal(t, time.Hour, cfg.OverallTimeout())
	assert.Equal(t, 5*time.Minute, cfg.IdleTimeout())
}

func TestLoadConfigRoundTrip(t *testing.T) {
	cfg := writableConfig(t)
	cfg.LogLevel = "DEBUG"
	cfg.OverallTimeoutSeconds = 120
	cfg.IdleTimeoutSeconds = 30
	cfg.DisableIdleTimeout = true
	cfg.Theme.Accent = "magenta"

	path := filepath.Join(t.TempDir(), "Config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", got.LogLevel)
	assert.Equal(t, 2*time.Minute, got.OverallTimeout())
	assert.Equal(t, 30*time.Second, got.IdleTimeout())
	assert.True(t, got.DisableIdleTimeout)
	assert.Equal(t, "magenta", got.Theme.Accent)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigCreatesDirectories(t *testing.T) {
	cfg := writableConfig(t)
	path := filepath.Join(t.TempDir(), "Config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	got, err := LoadConfig(path)
	require.NoError(t, err)

	for _, dir := range []string{got.CatalogsPath, got.CachePath} {
		info, statErr := os.Stat(dir)
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	}
}
