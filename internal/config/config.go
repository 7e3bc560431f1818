// Package config loads ContactKitt settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/kittclouds/contactkitt/internal/store"
)

// Backends selectable on native builds.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the process settings.
type Config struct {
	Backend        string `env:"CONTACTS_BACKEND" envDefault:"sqlite"`
	SQLiteDSN      string `env:"CONTACTS_SQLITE_DSN" envDefault:"contacts.db"`
	CollectionName string `env:"CONTACTS_STORE_NAME" envDefault:"contacts"`
	LogLevel       string `env:"CONTACTS_LOG_LEVEL" envDefault:"info"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads Config from the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid CONTACTS_BACKEND %q: must be %s or %s", c.Backend, BackendSQLite, BackendMemory)
	}
	if c.CollectionName == "" {
		return fmt.Errorf("CONTACTS_STORE_NAME must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid CONTACTS_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Logger builds a text logger on w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenStore opens the configured backend wrapped in trace logging.
func (c Config) OpenStore(logger *slog.Logger) (store.Storer, error) {
	var s store.Storer
	switch c.Backend {
	case BackendMemory:
		s = store.NewMemStore()
	case BackendSQLite:
		sqlite, err := store.OpenSQLiteStore(c.SQLiteDSN, c.CollectionName)
		if err != nil {
			return nil, err
		}
		s = sqlite
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
	return store.WithTrace(s, logger), nil
}
