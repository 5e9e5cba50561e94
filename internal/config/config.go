package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default values applied before the config file and environment are read.
const (
	DefaultAddr       = ":8080"
	DefaultDBPath     = "retain.db"
	DefaultAPIURL     = "http://localhost:8080"
	DefaultSessionTTL = 24 * time.Hour
	DefaultPageSize   = 25
)

// Config holds application configuration. Values are resolved in order:
// defaults, then the TOML config file, then environment variables.
type Config struct {
	Addr         string        // RETAIN_ADDR
	DBPath       string        // RETAIN_DB
	Secret       string        // RETAIN_SECRET, session signing key
	SessionTTL   time.Duration // RETAIN_SESSION_TTL, e.g. "24h"
	AdminEnabled bool          // RETAIN_ADMIN, reset/seed endpoints
	SeedOnStart  bool          // RETAIN_SEED, seed demo data at boot
	APIBaseURL   string        // RETAIN_API_URL, used by the TUI and CLI client
	PageSize     int           // RETAIN_PAGE_SIZE, default list page size
}

// fileConfig mirrors Config for TOML decoding. Durations travel as strings.
type fileConfig struct {
	Addr         *string `toml:"addr"`
	DBPath       *string `toml:"db_path"`
	Secret       *string `toml:"secret"`
	SessionTTL   *string `toml:"session_ttl"`
	AdminEnabled *bool   `toml:"admin_enabled"`
	SeedOnStart  *bool   `toml:"seed_on_start"`
	APIBaseURL   *string `toml:"api_base_url"`
	PageSize     *int    `toml:"page_size"`
}

// Load resolves configuration from defaults, the config file named by
// RETAIN_CONFIG (or ./retain.toml when present), and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Addr:         DefaultAddr,
		DBPath:       DefaultDBPath,
		SessionTTL:   DefaultSessionTTL,
		AdminEnabled: true,
		APIBaseURL:   DefaultAPIURL,
		PageSize:     DefaultPageSize,
	}

	if err := applyFile(&cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.PageSize < 1 {
		return Config{}, fmt.Errorf("page_size must be positive, got %d", cfg.PageSize)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("session_ttl must be positive, got %s", cfg.SessionTTL)
	}

	return cfg, nil
}

func applyFile(cfg *Config) error {
	path := os.Getenv("RETAIN_CONFIG")
	explicit := path != ""
	if !explicit {
		path = "retain.toml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Addr != nil {
		cfg.Addr = *fc.Addr
	}
	if fc.DBPath != nil {
		cfg.DBPath = *fc.DBPath
	}
	if fc.Secret != nil {
		cfg.Secret = *fc.Secret
	}
	if fc.SessionTTL != nil {
		ttl, err := time.ParseDuration(*fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("parse session_ttl: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	if fc.AdminEnabled != nil {
		cfg.AdminEnabled = *fc.AdminEnabled
	}
	if fc.SeedOnStart != nil {
		cfg.SeedOnStart = *fc.SeedOnStart
	}
	if fc.APIBaseURL != nil {
		cfg.APIBaseURL = *fc.APIBaseURL
	}
	if fc.PageSize != nil {
		cfg.PageSize = *fc.PageSize
	}

	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Addr = envOr("RETAIN_ADDR", cfg.Addr)
	cfg.DBPath = envOr("RETAIN_DB", cfg.DBPath)
	cfg.Secret = envOr("RETAIN_SECRET", cfg.Secret)
	cfg.APIBaseURL = envOr("RETAIN_API_URL", cfg.APIBaseURL)

	if v := os.Getenv("RETAIN_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse RETAIN_SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	if v := os.Getenv("RETAIN_ADMIN"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse RETAIN_ADMIN: %w", err)
		}
		cfg.AdminEnabled = enabled
	}
	if v := os.Getenv("RETAIN_SEED"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse RETAIN_SEED: %w", err)
		}
		cfg.SeedOnStart = seed
	}
	if v := os.Getenv("RETAIN_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse RETAIN_PAGE_SIZE: %w", err)
		}
		cfg.PageSize = size
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
