// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and BRECHER_* env vars over the defaults.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Development credentials. Running with them is allowed but logged.
const (
	devPassword = "brecher"
	devSecret   = "dev-secret-change-me"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreBackend is memory, sqlite or postgres. Left empty, postgres is
	// picked when the database url points at postgres and sqlite otherwise.
	StoreBackend string `koanf:"store_backend"`

	// DatabaseURL is the postgres connection string. DATABASE_URL is read
	// as a fallback.
	DatabaseURL string `koanf:"database_url"`

	// SQLitePath is the database file of the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// WeekCacheSize bounds the number of weeks held in memory; 0 disables
	// the cache.
	WeekCacheSize int `koanf:"week_cache_size"`

	// RulesVersion selects the scoring rule generation.
	RulesVersion string `koanf:"rules_version"`

	// Roster lists the competitors in tie-break order.
	Roster []string `koanf:"roster"`

	// SeasonStartWeek is the first calendar week of the season; lower weeks
	// belong to the next year.
	SeasonStartWeek int `koanf:"season_start_week"`

	// SeasonWeeks are the weeks seeded on initialization.
	SeasonWeeks []int `koanf:"season_weeks"`

	// Timezone the reveal hour is read in.
	Timezone string `koanf:"timezone"`

	// RevealHour is the Sunday hour at which a week becomes official.
	RevealHour int `koanf:"reveal_hour"`

	// AuthPassword is the shared login password.
	AuthPassword string `koanf:"auth_password"`

	// AuthSecret signs bearer tokens.
	AuthSecret string `koanf:"auth_secret"`

	// TokenTTLMinutes is the lifetime of a bearer token.
	TokenTTLMinutes int `koanf:"token_ttl_minutes"`

	// WriteRatePerMinute and WriteBurst throttle cell writes per person.
	WriteRatePerMinute float64 `koanf:"write_rate_per_minute"`
	WriteBurst         int     `koanf:"write_burst"`

	// ShutdownTimeoutSeconds bounds graceful HTTP shutdown.
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		SQLitePath:             "brecher.db",
		WeekCacheSize:          64,
		RulesVersion:           "v2",
		Roster:                 []string{"David", "Cedric", "Müller"},
		SeasonStartWeek:        39,
		SeasonWeeks:            []int{39, 40, 41, 42, 43, 44, 45, 46},
		Timezone:               "Europe/Berlin",
		RevealHour:             22,
		AuthPassword:           devPassword,
		AuthSecret:             devSecret,
		TokenTTLMinutes:        12 * 60,
		WriteRatePerMinute:     120,
		WriteBurst:             20,
		ShutdownTimeoutSeconds: 30,
	}
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// TokenTTL returns the token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// InsecureDefaults reports whether the development credentials are in use.
func (c *Config) InsecureDefaults() bool {
	return c.AuthPassword == devPassword || c.AuthSecret == devSecret
}

// normalize trims list entries that came from comma separated env values.
func (c *Config) normalize() {
	roster := c.Roster[:0]
	for _, p := range c.Roster {
		if p = strings.TrimSpace(p); p != "" {
			roster = append(roster, p)
		}
	}
	c.Roster = roster
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}
