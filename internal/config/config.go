// Package config loads runtime configuration from defaults, an optional
// config.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/room-vacancy/backend/internal/timeslot"
)

// Cache backends for the place resolution cache.
const (
	CacheBackendJSON   = "json"
	CacheBackendSQLite = "sqlite"
)

// Config holds all configuration values.
type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Availability window and threshold.
	DayStart     string `mapstructure:"DAY_START"`
	DayEnd       string `mapstructure:"DAY_END"`
	MinDuration  int    `mapstructure:"MIN_DURATION"`
	SaveSchedule bool   `mapstructure:"SAVE_SCHEDULE"`

	// Files.
	DataDir       string `mapstructure:"DATA_DIR"`
	OutDir        string `mapstructure:"OUT_DIR"`
	BuildingsFile string `mapstructure:"BUILDINGS_FILE"`
	CatalogFile   string `mapstructure:"CATALOG_FILE"`
	CacheBackend  string `mapstructure:"CACHE_BACKEND"`
	DBPath        string `mapstructure:"DB_PATH"`

	// Google Maps.
	GoogleAPIKey  string  `mapstructure:"GOOGLE_API_KEY"`
	GoogleMapsURL string  `mapstructure:"GOOGLE_MAPS_URL"`
	CampusLat     float64 `mapstructure:"CAMPUS_LAT"`
	CampusLng     float64 `mapstructure:"CAMPUS_LNG"`
	GeocodeRPS    float64 `mapstructure:"GEOCODE_RPS"`

	// Catalog API.
	SchedgeURL string `mapstructure:"SCHEDGE_URL"`

	// Server mode.
	ServerAddr      string        `mapstructure:"SERVER_ADDR"`
	RefreshInterval time.Duration `mapstructure:"REFRESH_INTERVAL"`
}

var defaults = map[string]any{
	"ENV":              "development",
	"LOG_LEVEL":        "info",
	"DAY_START":        "08:00",
	"DAY_END":          "22:00",
	"MIN_DURATION":     15,
	"SAVE_SCHEDULE":    false,
	"DATA_DIR":         "data",
	"OUT_DIR":          "out",
	"BUILDINGS_FILE":   filepath.Join("data", "locations.json"),
	"CATALOG_FILE":     "",
	"CACHE_BACKEND":    CacheBackendJSON,
	"DB_PATH":          filepath.Join("data", "vacancy.db"),
	"GOOGLE_API_KEY":   "",
	"GOOGLE_MAPS_URL":  "https://maps.googleapis.com",
	"CAMPUS_LAT":       40.7295,
	"CAMPUS_LNG":       -73.9973,
	"GEOCODE_RPS":      10.0,
	"SCHEDGE_URL":      "https://schedge.a1liu.com",
	"SERVER_ADDR":      ":8099",
	"REFRESH_INTERVAL": "6h",
}

// Load reads configuration. Search paths are "." and "./config"; a missing
// config file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.Window(); err != nil {
		return err
	}
	if c.MinDuration < 0 {
		return fmt.Errorf("MIN_DURATION must be non-negative, got %d", c.MinDuration)
	}
	switch c.CacheBackend {
	case CacheBackendJSON, CacheBackendSQLite:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.GeocodeRPS <= 0 {
		return fmt.Errorf("GEOCODE_RPS must be positive")
	}
	return nil
}

// ValidateGeocoder checks the settings needed by binaries that resolve
// places. Without a key every lookup is denied.
func (c *Config) ValidateGeocoder() error {
	if c.GoogleAPIKey == "" {
		return errors.New("GOOGLE_API_KEY is required to resolve places")
	}
	if c.GoogleMapsURL == "" {
		return errors.New("GOOGLE_MAPS_URL must not be empty")
	}
	return nil
}

// Window returns the configured day window.
func (c *Config) Window() (timeslot.Window, error) {
	return timeslot.ParseWindow(c.DayStart, c.DayEnd)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// PlacesCacheFile is the success cache path for the JSON backend.
func (c *Config) PlacesCacheFile() string {
	return filepath.Join(c.DataDir, "places_cache.json")
}

// PlacesErrorFile is the failure cache path for the JSON backend.
func (c *Config) PlacesErrorFile() string {
	return filepath.Join(c.DataDir, "places_error.json")
}
