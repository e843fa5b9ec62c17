// Package config loads service configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"oficio/internal/core/numerator"
	"oficio/internal/domain/dispatch"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the root configuration.
type Config struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Outbox   OutboxConfig   `yaml:"outbox"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // postgres, sqlite
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
	MaxConns   int32  `yaml:"max_conns"`
	MinConns   int32  `yaml:"min_conns"`
	// Migrate creates missing tables on startup.
	Migrate bool `yaml:"migrate"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type AuthConfig struct {
	// Enabled requires a bearer token on every API route.
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

type DispatchConfig struct {
	Timezone string                `yaml:"timezone"`
	PadWidth int                   `yaml:"pad_width"`
	Letter   dispatch.LetterConfig `yaml:"letter"`
}

type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:     DriverPostgres,
			SQLitePath: "./data/oficio.db",
			MaxConns:   10,
			MinConns:   2,
			Migrate:    true,
		},
		Log: LogConfig{Level: "info"},
		Dispatch: DispatchConfig{
			Timezone: "America/Fortaleza",
			PadWidth: numerator.DefaultPadWidth,
			Letter:   dispatch.DefaultLetterConfig(),
		},
		Outbox: OutboxConfig{
			PollInterval: 2 * time.Second,
			BatchSize:    100,
		},
	}
}

// Load reads the file named by CONFIG_PATH (default config.yaml) and applies
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFile(path, os.LookupEnv)
}

// LoadFile reads path over the defaults, then applies overrides from lookup.
func LoadFile(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("APP_ENV", &c.Env)
	str("APP_PORT", &c.Server.Port)
	str("LOG_LEVEL", &c.Log.Level)
	str("STORAGE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("SQLITE_PATH", &c.Database.SQLitePath)
	str("DISPATCH_TIMEZONE", &c.Dispatch.Timezone)
	str("JWT_SECRET", &c.Auth.Secret)

	if v, ok := lookup("AUTH_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTH_ENABLED: %w", err)
		}
		c.Auth.Enabled = b
	}
	return nil
}

// Validate checks the values the services cannot start without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database url is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("sqlite path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Database.Driver)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return errors.New("auth is enabled but no secret is set")
	}
	if _, err := c.Dispatch.Location(); err != nil {
		return err
	}
	return nil
}

// IsDevelopment reports a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves the dispatch timezone. Empty means UTC.
func (d DispatchConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("dispatch timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// Generator builds the dispatch generator configuration.
func (d DispatchConfig) Generator() (dispatch.Config, error) {
	loc, err := d.Location()
	if err != nil {
		return dispatch.Config{}, err
	}
	cfg := dispatch.DefaultConfig()
	cfg.Location = loc
	if d.PadWidth > 0 {
		cfg.Format.PadWidth = d.PadWidth
	}

	def := dispatch.DefaultLetterConfig()
	cfg.Letter = d.Letter
	if len(cfg.Letter.Letterhead) == 0 {
		cfg.Letter.Letterhead = def.Letterhead
	}
	if cfg.Letter.Department == "" {
		cfg.Letter.Department = def.Department
	}
	if cfg.Letter.City == "" {
		cfg.Letter.City = def.City
	}
	if cfg.Letter.Body == "" {
		cfg.Letter.Body = def.Body
	}
	return cfg, nil
}
