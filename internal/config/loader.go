package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names read by Load.
const (
	envPrefix      = "BRECHER_"
	envConfigFile  = "BRECHER_CONFIG"
	envDatabaseURL = "DATABASE_URL"
)

// Known values checked by Validate.
var (
	backends     = map[string]bool{"memory": true, "sqlite": true, "postgres": true}
	rulesets     = map[string]bool{"v1": true, "v2": true}
	logFormats   = map[string]bool{"text": true, "json": true}
	postgresURLs = []string{"postgres://", "postgresql://"}
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BRECHER_CONFIG is set
//  3. env (prefix BRECHER_)
//
// DATABASE_URL fills database_url when nothing else set it.
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like BRECHER_STORE_BACKEND -> store_backend (flat keys).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// Layers replace list defaults instead of merging into them.
	for key, reset := range map[string]func(){
		"roster":       func() { cfg.Roster = nil },
		"season_weeks": func() { cfg.SeasonWeeks = nil },
	} {
		if k.Exists(key) {
			reset()
		}
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg.normalize()
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv(envDatabaseURL)
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "sqlite"
		if isPostgresURL(cfg.DatabaseURL) {
			cfg.StoreBackend = "postgres"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !backends[c.StoreBackend]:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	case c.StoreBackend == "postgres" && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for postgres", ErrInvalidConfig)
	case c.StoreBackend == "sqlite" && c.SQLitePath == "":
		return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
	case !rulesets[c.RulesVersion]:
		return fmt.Errorf("%w: unknown rules_version %q", ErrInvalidConfig, c.RulesVersion)
	case len(c.Roster) == 0:
		return fmt.Errorf("%w: roster must not be empty", ErrInvalidConfig)
	case c.SeasonStartWeek < 1 || c.SeasonStartWeek > 53:
		return fmt.Errorf("%w: season_start_week %d out of range", ErrInvalidConfig, c.SeasonStartWeek)
	case c.RevealHour < 0 || c.RevealHour > 23:
		return fmt.Errorf("%w: reveal_hour %d out of range", ErrInvalidConfig, c.RevealHour)
	case c.AuthSecret == "":
		return fmt.Errorf("%w: auth_secret must not be empty", ErrInvalidConfig)
	case c.TokenTTLMinutes <= 0:
		return fmt.Errorf("%w: token_ttl_minutes must be positive", ErrInvalidConfig)
	case c.LogFormat != "" && !logFormats[c.LogFormat]:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	for _, w := range c.SeasonWeeks {
		if w < 1 || w > 53 {
			return fmt.Errorf("%w: season week %d out of range", ErrInvalidConfig, w)
		}
	}
	seen := make(map[string]bool, len(c.Roster))
	for _, p := range c.Roster {
		if seen[p] {
			return fmt.Errorf("%w: duplicate roster entry %q", ErrInvalidConfig, p)
		}
		seen[p] = true
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func isPostgresURL(url string) bool {
	for _, prefix := range postgresURLs {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}
