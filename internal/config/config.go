// Package config provides configuration for the tracking core with
// defaults, environment-variable overrides, and struct validation.
// The library has no process boundary, so there are no flags; embedders
// either pass a Config or call Load to pick up the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/mit112/flickswiper/internal/validation"
)

// Config holds the library configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Catalog CatalogConfig
	Session SessionConfig
	Publish PublishConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `validate:"oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"omitempty,oneof=json pretty"`
}

// StorageConfig holds local store configuration.
type StorageConfig struct {
	// DBPath is the SQLite database file path.
	DBPath string `validate:"required"`
}

// CatalogConfig holds content provider configuration.
type CatalogConfig struct {
	BaseURL string `validate:"required,url"`
	APIKey  string
	// Timeout bounds a single page fetch.
	Timeout time.Duration `validate:"gt=0"`
}

// SessionConfig tunes the discovery loop.
type SessionConfig struct {
	// MinPageYield is the minimum number of new items a load must produce
	// before it stops asking the provider for further pages.
	MinPageYield int `validate:"gt=0"`
	// MaxPagesPerLoad caps consecutive page fetches in one load so a
	// provider full of already-swiped content cannot loop forever.
	MaxPagesPerLoad int `validate:"gt=0"`
	// ZeroYieldLimit is the fast-exit threshold for consecutive pages that
	// contributed nothing new after filtering.
	ZeroYieldLimit int `validate:"gt=0"`
	// UndoDepth is the undo stack capacity; oldest entries are evicted.
	UndoDepth int `validate:"gt=0"`
	// DebounceInterval is the quiet period after a filter change before
	// the queue reloads.
	DebounceInterval time.Duration `validate:"gt=0"`
}

// PublishConfig holds list publishing configuration.
type PublishConfig struct {
	// AppDomain is the host used to build share deep links.
	AppDomain string `validate:"required,hostname"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Storage: StorageConfig{
			DBPath: "flickswiper.db",
		},
		Catalog: CatalogConfig{
			BaseURL: "https://api.themoviedb.org/3",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			MinPageYield:     5,
			MaxPagesPerLoad:  5,
			ZeroYieldLimit:   2,
			UndoDepth:        10,
			DebounceInterval: 300 * time.Millisecond,
		},
		Publish: PublishConfig{
			AppDomain: "flickswiper.app",
		},
	}
}

// Load builds a Config from defaults overridden by environment variables,
// then validates it.
func Load() (*Config, error) {
	cfg := Default()

	cfg.App.Environment = getEnv("FLICK_ENV", cfg.App.Environment)
	cfg.Logger.Level = getEnv("FLICK_LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = getEnv("FLICK_LOG_FORMAT", cfg.Logger.Format)
	cfg.Storage.DBPath = getEnv("FLICK_DB_PATH", cfg.Storage.DBPath)
	cfg.Catalog.BaseURL = getEnv("FLICK_CATALOG_URL", cfg.Catalog.BaseURL)
	cfg.Catalog.APIKey = getEnv("FLICK_CATALOG_API_KEY", cfg.Catalog.APIKey)
	cfg.Catalog.Timeout = getEnvDuration("FLICK_CATALOG_TIMEOUT", cfg.Catalog.Timeout)
	cfg.Session.MinPageYield = getEnvInt("FLICK_MIN_PAGE_YIELD", cfg.Session.MinPageYield)
	cfg.Session.MaxPagesPerLoad = getEnvInt("FLICK_MAX_PAGES_PER_LOAD", cfg.Session.MaxPagesPerLoad)
	cfg.Session.UndoDepth = getEnvInt("FLICK_UNDO_DEPTH", cfg.Session.UndoDepth)
	cfg.Session.DebounceInterval = getEnvDuration("FLICK_DEBOUNCE_INTERVAL", cfg.Session.DebounceInterval)
	cfg.Publish.AppDomain = getEnv("FLICK_APP_DOMAIN", cfg.Publish.AppDomain)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct rules.
func (c *Config) Validate() error {
	return validate.Validate(c)
}

var validate = validation.New()

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
