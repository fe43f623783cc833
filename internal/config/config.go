// Package config loads the server configuration.
//
// SOURCES, HIGHEST PRIORITY FIRST:
//  1. Environment variables, CLICKS_ prefix, dots become underscores
//     (session.secret → CLICKS_SESSION_SECRET). server.port also honours
//     the bare PORT variable most hosting platforms set.
//  2. A .env file in the working directory (never overrides real env vars)
//  3. An optional config.yaml / config.json / config.toml in the working directory
//  4. The defaults below
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CLICKS"

// Store backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Counter consistency modes. See service.WithSerializedUpdates.
const (
	ConsistencyRelaxed    = "relaxed"
	ConsistencySerialized = "serialized"
)

// Config holds everything cmd/server needs to build the server.
type Config struct {
	Server struct {
		Port    int    `mapstructure:"port"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"server"`

	Database struct {
		Driver string `mapstructure:"driver"`
		Path   string `mapstructure:"path"` // sqlite file
		URL    string `mapstructure:"url"`  // postgres DSN
	} `mapstructure:"database"`

	Session struct {
		Secret string        `mapstructure:"secret"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`

	GitHub struct {
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		CallbackURL  string `mapstructure:"callback_url"`
	} `mapstructure:"github"`

	Web struct {
		TemplateDir string `mapstructure:"template_dir"`
		StaticDir   string `mapstructure:"static_dir"`
	} `mapstructure:"web"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // text | json
	} `mapstructure:"log"`

	Counter struct {
		Consistency string `mapstructure:"consistency"`
	} `mapstructure:"counter"`
}

// Load reads the configuration from the working directory and environment.
func Load() (Config, error) {
	return loadFrom(".")
}

func loadFrom(dir string) (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("config: binding PORT: %w", err)
	}

	v.SetConfigName("config")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.fillDerived()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/clicks.db")
	v.SetDefault("database.url", "")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("github.client_id", "")
	v.SetDefault("github.client_secret", "")
	v.SetDefault("github.callback_url", "")
	v.SetDefault("web.template_dir", "web/templates")
	v.SetDefault("web.static_dir", "web/static")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("counter.consistency", ConsistencyRelaxed)
}

// fillDerived computes the values that default to other values.
func (c *Config) fillDerived() {
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.GitHub.CallbackURL == "" {
		c.GitHub.CallbackURL = c.Server.BaseURL + "/auth/github/callback"
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	c.Counter.Consistency = strings.ToLower(c.Counter.Consistency)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("config: database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("config: database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown database.driver %q (want %s or %s)",
			c.Database.Driver, DriverSQLite, DriverPostgres)
	}

	// An empty secret is allowed: internal/server generates a throwaway one.
	if c.Session.Secret != "" && len(c.Session.Secret) < 16 {
		return errors.New("config: session.secret must be at least 16 characters")
	}
	if c.Session.TTL < 0 {
		return errors.New("config: session.ttl must not be negative")
	}

	switch c.Counter.Consistency {
	case ConsistencyRelaxed, ConsistencySerialized:
	default:
		return fmt.Errorf("config: unknown counter.consistency %q (want %s or %s)",
			c.Counter.Consistency, ConsistencyRelaxed, ConsistencySerialized)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// GitHubEnabled reports whether both OAuth credentials are set.
func (c Config) GitHubEnabled() bool {
	return c.GitHub.ClientID != "" && c.GitHub.ClientSecret != ""
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.Server.BaseURL, "https://")
}

// SlogLevel parses log.level ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
