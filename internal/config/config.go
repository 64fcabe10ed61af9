// Package config loads the server configuration from a YAML file with
// environment-variable overrides.
//
// PRECEDENCE (lowest to highest):
//  1. Built-in defaults
//  2. The YAML config file, if present
//  3. Environment variables (PORT, DB_PATH, JWT_SECRET, ...)
//
// On first run, if a config path was given and no file exists there, a
// default file is written (0600 — it will hold the JWT secret and OAuth
// credentials once the operator fills them in). This mirrors how a fresh
// deployment is expected to be set up: start once, edit the generated file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthConfig holds session and identity-provider settings.
type AuthConfig struct {
	// JWTSecret signs session tokens. Must be at least 16 characters;
	// generate with: openssl rand -hex 32
	JWTSecret string `yaml:"jwt_secret"`

	// GitHub OAuth app credentials. Leave empty to disable GitHub sign-in
	// (email/password still works).
	GitHubClientID     string `yaml:"github_client_id"`
	GitHubClientSecret string `yaml:"github_client_secret"`

	// GitHubCallbackURL must match the OAuth app's configured callback
	// exactly. Defaults to http://localhost:<port>/auth/github/callback.
	GitHubCallbackURL string `yaml:"github_callback_url"`
}

// ProvisioningConfig controls default-calendar creation.
type ProvisioningConfig struct {
	// AssignSlugAtCreation decides when a calendar gets its slug: true
	// seeds one from the owner's name as soon as the default calendar is
	// created; false defers it until the calendar is first made public.
	// Both are valid product policies.
	AssignSlugAtCreation bool `yaml:"assign_slug_at_creation"`
}

// Config is the top-level server configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// DBPath is the SQLite database file ("data/debrief.db").
	DBPath string `yaml:"db_path"`

	// BaseURL is the externally visible origin used to build shareable
	// links, e.g. "https://debrief.example.com".
	BaseURL string `yaml:"base_url"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// WeekStart controls which weekday opens a week in month windows:
	// "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start"`

	Auth         AuthConfig         `yaml:"auth"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:      8080,
		DBPath:    "data/debrief.db",
		BaseURL:   "http://localhost:8080",
		LogLevel:  "info",
		WeekStart: "sunday",
		Provisioning: ProvisioningConfig{
			AssignSlugAtCreation: true,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (written with defaults on first run when missing), then environment
// overrides.
//
// An empty path skips the file layer entirely — useful for tests and for
// deployments that configure everything through the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Auth.GitHubCallbackURL == "" {
		cfg.Auth.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		// First run: write the defaults so the operator has a file to edit.
		return c.writeDefault(path)
	}
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) writeDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling defaults: %w", err)
	}

	// 0600: the file will carry secrets once filled in.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("GITHUB_CLIENT_ID"); v != "" {
		c.Auth.GitHubClientID = v
	}
	if v := os.Getenv("GITHUB_CLIENT_SECRET"); v != "" {
		c.Auth.GitHubClientSecret = v
	}
	if v := os.Getenv("GITHUB_CALLBACK_URL"); v != "" {
		c.Auth.GitHubCallbackURL = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	switch c.WeekStart {
	case "sunday", "monday":
	default:
		return fmt.Errorf("config: week_start must be \"sunday\" or \"monday\", got %q", c.WeekStart)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// WeekStartDay translates the WeekStart setting to a time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}
