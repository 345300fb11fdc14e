// Package config loads reportgen settings from a YAML file with environment
// overrides. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvConfigPath   = "REPORTGEN_CONFIG"
	EnvDBType       = "REPORTGEN_DB_TYPE"
	EnvDBDSN        = "REPORTGEN_DB_DSN"
	EnvTheme        = "REPORTGEN_THEME"
	EnvThemeVariant = "REPORTGEN_THEME_VARIANT"
	EnvAllowHTTP    = "REPORTGEN_ALLOW_HTTP"
)

// DefaultPath is read when neither an explicit path nor REPORTGEN_CONFIG is set.
const DefaultPath = "reportgen.yaml"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Theme    ThemeConfig    `yaml:"theme"`
	Layout   LayoutConfig   `yaml:"layout"`
	Loader   LoaderConfig   `yaml:"loader"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // memory, sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type ThemeConfig struct {
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
}

type LayoutConfig struct {
	PhotoColumns   int    `yaml:"photo_columns"`
	SignatureTitle string `yaml:"signature_title"`
}

type LoaderConfig struct {
	AllowHTTP bool          `yaml:"allow_http"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Type: "sqlite", DSN: "./data/reportgen.db"},
		Theme:    ThemeConfig{Name: "default", Variant: "light"},
		Layout:   LayoutConfig{PhotoColumns: 2, SignatureTitle: "Signatures"},
		Loader:   LoaderConfig{Timeout: 10 * time.Second},
	}
}

// Load reads path (or REPORTGEN_CONFIG, or DefaultPath) over the defaults and
// applies environment overrides. A missing default file is not an error; a
// missing explicit file is.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	cfg := Default()

	explicit := true
	if path == "" {
		path = getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath
		explicit = false
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if v := getenv(EnvDBType); v != "" {
		cfg.Database.Type = v
	}
	if v := getenv(EnvDBDSN); v != "" {
		cfg.Database.DSN = v
	}
	if v := getenv(EnvTheme); v != "" {
		cfg.Theme.Name = v
	}
	if v := getenv(EnvThemeVariant); v != "" {
		cfg.Theme.Variant = v
	}
	if v := getenv(EnvAllowHTTP); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvAllowHTTP, err)
		}
		cfg.Loader.AllowHTTP = allow
	}

	return cfg, cfg.Validate()
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch strings.ToLower(c.Database.Type) {
	case "memory":
	case "sqlite", "mysql":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("config: database.dsn is required for %s", c.Database.Type)
		}
	default:
		return fmt.Errorf("config: unsupported database.type %q", c.Database.Type)
	}
	if c.Layout.PhotoColumns < 0 {
		return fmt.Errorf("config: layout.photo_columns must not be negative")
	}
	return nil
}

// Save writes c as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
