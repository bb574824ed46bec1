// Package config loads server settings from an optional config.yaml and
// CMSEARCH_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CMSEARCH_DATABASE_URL.
const EnvPrefix = "CMSEARCH"

// Config is the full server configuration.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Search   SearchConfig
}

type AppConfig struct {
	Port string
	Env  string
}

// IsDevelopment enables human-readable logs and gin debug mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// SearchConfig bounds result page sizes.
type SearchConfig struct {
	DefaultLimit int
	MaxLimit     int
}

var defaults = map[string]any{
	"app.port":                   "8080",
	"app.env":                    "development",
	"log.level":                  "info",
	"database.max_conns":         20,
	"database.min_conns":         2,
	"database.statement_timeout": 30 * time.Second,
	"auth.issuer":                "cmsearch",
	"search.default_limit":       20,
	"search.max_limit":           100,
}

// Load reads config.yaml from configPath (if present) and applies
// environment overrides. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// Required keys have no default; bind them so AllSettings sees the env.
	for _, key := range []string{"database.url", "auth.jwt_secret"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Port: v.GetString("app.port"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Database: DatabaseConfig{
			URL:              v.GetString("database.url"),
			MaxConns:         v.GetInt32("database.max_conns"),
			MinConns:         v.GetInt32("database.min_conns"),
			StatementTimeout: v.GetDuration("database.statement_timeout"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			Issuer:    v.GetString("auth.issuer"),
		},
		Search: SearchConfig{
			DefaultLimit: v.GetInt("search.default_limit"),
			MaxLimit:     v.GetInt("search.max_limit"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Search.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit))
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		errs = append(errs, fmt.Errorf("search.max_limit (%d) must be >= search.default_limit (%d)",
			c.Search.MaxLimit, c.Search.DefaultLimit))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("database.min_conns (%d) must be <= database.max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns))
	}
	return errors.Join(errs...)
}
