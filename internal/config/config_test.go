package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/room-vacancy/backend/internal/timeslot"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "08:00", cfg.DayStart)
	assert.Equal(t, "22:00", cfg.DayEnd)
	assert.Equal(t, 15, cfg.MinDuration)
	assert.Equal(t, CacheBackendJSON, cfg.CacheBackend)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, filepath.Join("data", "places_cache.json"), cfg.PlacesCacheFile())
	assert.Equal(t, filepath.Join("data", "places_error.json"), cfg.PlacesErrorFile())
	assert.False(t, cfg.IsProduction())

	window, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, 8*60, window.StartMinutes())
	assert.Equal(t, 22*60, window.EndMinutes())
}

func TestLoadFileThenEnvironment(t *testing.T) {
	dir := writeConfig(t, `
day_start: "09:00"
day_end: "21:30"
min_duration: 20
cache_backend: sqlite
refresh_interval: 30m
`)
	t.Setenv("MIN_DURATION", "45")
	t.Setenv("ENV", "production")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "09:00", cfg.DayStart)
	assert.Equal(t, "21:30", cfg.DayEnd)
	assert.Equal(t, 45, cfg.MinDuration)
	assert.Equal(t, CacheBackendSQLite, cfg.CacheBackend)
	assert.Equal(t, 30*time.Minute, cfg.RefreshInterval)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		is   error
	}{
		{name: "inverted window", body: "day_start: \"22:00\"\nday_end: \"08:00\"\n", is: timeslot.ErrInvalidWindow},
		{name: "malformed time", body: "day_start: \"8am\"\n", is: timeslot.ErrInvalidTime},
		{name: "negative min duration", body: "min_duration: -5\n"},
		{name: "unknown cache backend", body: "cache_backend: redis\n"},
		{name: "zero geocode rate", body: "geocode_rps: 0\n"},
		{name: "malformed yaml", body: "day_start: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestValidateGeocoder(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	cfg.GoogleAPIKey = ""
	assert.ErrorContains(t, cfg.ValidateGeocoder(), "GOOGLE_API_KEY")

	t.Setenv("GOOGLE_API_KEY", "maps-key")
	cfg, err = Load(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateGeocoder())

	cfg.GoogleMapsURL = ""
	assert.Error(t, cfg.ValidateGeocoder())
}
