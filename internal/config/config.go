// Package config loads listing-desk settings from a YAML file and PL_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	fileName  = "config.yaml"
	envPrefix = "PL"
)

// Config holds every runtime setting.
type Config struct {
	Server   Server   `mapstructure:"server" yaml:"server"`
	Database Database `mapstructure:"database" yaml:"database"`
	Auth     Auth     `mapstructure:"auth" yaml:"auth"`
	Geo      Geo      `mapstructure:"geo" yaml:"geo"`
	Search   Search   `mapstructure:"search" yaml:"search"`
	Log      Log      `mapstructure:"log" yaml:"log"`
}

// Server configures the HTTP listener.
type Server struct {
	Port    int    `mapstructure:"port" yaml:"port"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// Database configures the SQLite file.
type Database struct {
	// Path is empty for the default location.
	Path string `mapstructure:"path" yaml:"path"`
}

// Auth configures the capability gate.
type Auth struct {
	AdminEmail string `mapstructure:"admin_email" yaml:"admin_email"`
	// NonceSecret signs form nonces. When empty, a random secret is generated
	// at startup and nonces do not survive a restart.
	NonceSecret   string        `mapstructure:"nonce_secret" yaml:"nonce_secret"`
	NonceLifetime time.Duration `mapstructure:"nonce_lifetime" yaml:"nonce_lifetime"`
}

// Geo configures the ZIP lookup client.
type Geo struct {
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
}

// Search configures the admin search.
type Search struct {
	// ExactPaging recounts pages after the price filter instead of using
	// the store's count.
	ExactPaging bool `mapstructure:"exact_paging" yaml:"exact_paging"`
}

// Log configures logging.
type Log struct {
	Dev bool `mapstructure:"dev" yaml:"dev"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: Server{Port: 8080, BaseURL: "http://localhost:8080"},
		Auth:   Auth{NonceLifetime: 24 * time.Hour},
		Geo: Geo{
			BaseURL:       "https://api.zippopotam.us",
			Timeout:       10 * time.Second,
			RatePerSecond: 2,
		},
	}
}

// DefaultPath returns ~/.listing-desk/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".listing-desk", fileName), nil
}

// Load reads the config file at path and applies PL_ environment overrides,
// e.g. PL_SERVER_PORT or PL_SEARCH_EXACT_PAGING. An empty path uses
// DefaultPath. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
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

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("auth.admin_email", d.Auth.AdminEmail)
	v.SetDefault("auth.nonce_secret", d.Auth.NonceSecret)
	v.SetDefault("auth.nonce_lifetime", d.Auth.NonceLifetime)
	v.SetDefault("geo.base_url", d.Geo.BaseURL)
	v.SetDefault("geo.timeout", d.Geo.Timeout)
	v.SetDefault("geo.rate_per_second", d.Geo.RatePerSecond)
	v.SetDefault("search.exact_paging", d.Search.ExactPaging)
	v.SetDefault("log.dev", d.Log.Dev)
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Auth.NonceLifetime <= 0 {
		return fmt.Errorf("auth.nonce_lifetime must be positive")
	}
	if c.Geo.Timeout <= 0 {
		return fmt.Errorf("geo.timeout must be positive")
	}
	if c.Geo.RatePerSecond <= 0 {
		return fmt.Errorf("geo.rate_per_second must be positive")
	}
	return nil
}

// WriteFile writes cfg as YAML to path, creating parent directories.
// An existing file is only replaced when overwrite is set.
func WriteFile(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Marshal renders cfg in the config file's YAML layout.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(fileView(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// fileView renders durations as strings so the file reads "10s" rather than
// a nanosecond count.
func fileView(cfg Config) map[string]interface{} {
	return map[string]interface{}{
		"server":   cfg.Server,
		"database": cfg.Database,
		"auth": map[string]string{
			"admin_email":    cfg.Auth.AdminEmail,
			"nonce_secret":   cfg.Auth.NonceSecret,
			"nonce_lifetime": cfg.Auth.NonceLifetime.String(),
		},
		"geo": map[string]interface{}{
			"base_url":        cfg.Geo.BaseURL,
			"timeout":         cfg.Geo.Timeout.String(),
			"rate_per_second": cfg.Geo.RatePerSecond,
		},
		"search": cfg.Search,
		"log":    cfg.Log,
	}
}
