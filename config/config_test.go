package config

import (
	"log/slog"
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
	for _, k := range []string{"TIMEZONE", "SLEEP_SCREENSHOTS", "ORACLE_TIMEOUT", "WEATHER_LOCATIONS", "LOG_LEVEL", "STORE_BACKEND", "MORNING_CRON", "DISCORD_CHANNEL_ID"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg := Load()
	assert.Equal(t, "Atlantic/Canary", cfg.Location.String())
	assert.Equal(t, "sheets", cfg.StoreBackend)
	assert.Equal(t, "0 7 * * *", cfg.MorningCron)
	assert.Equal(t, "0 18 * * 0", cfg.WeeklyCron)
	assert.Equal(t, 9, cfg.SleepScreenshots)
	assert.Equal(t, 90*time.Second, cfg.OracleTimeout)
	assert.Equal(t, []string{"Las Palmas", "Giessen"}, cfg.WeatherLocations)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("SLEEP_SCREENSHOTS", "4")
	t.Setenv("ORACLE_TIMEOUT", "30s")
	t.Setenv("WEATHER_LOCATIONS", " Berlin , ,Hamburg")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("STORE_BACKEND", "memory")

	cfg := Load()
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
	assert.Equal(t, 4, cfg.SleepScreenshots)
	assert.Equal(t, 30*time.Second, cfg.OracleTimeout)
	assert.Equal(t, []string{"Berlin", "Hamburg"}, cfg.WeatherLocations)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "memory", cfg.StoreBackend)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	t.Setenv("SLEEP_SCREENSHOTS", "-2")
	t.Setenv("ORACLE_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 9, cfg.SleepScreenshots)
	assert.Equal(t, 90*time.Second, cfg.OracleTimeout)
}

func TestServiceConfigFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".zeroism"), 0o700))
	require.NoError(t, os.WriteFile(ConfigFile(), []byte("DISCORD_CHANNEL_ID=4242\n"), 0o600))
	os.Unsetenv("DISCORD_CHANNEL_ID")

	assert.Equal(t, "4242", Load().DiscordChannelID)
}
