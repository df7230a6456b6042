// Package config holds the coopcal settings and their layered loading:
// built-in defaults, then a YAML file, then COOPCAL_* environment variables.
// Command-line flags are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultCalendarID is the co-op calendar coopcal was written for.
	DefaultCalendarID = "ljqrvhbv2eomhf0klojo5aflog@group.calendar.google.com"

	// DefaultTimezone is the zone month boundaries are computed in.
	DefaultTimezone = "America/Los_Angeles"

	// DefaultCredentialsFile is the client-secrets file, relative to the
	// working directory.
	DefaultCredentialsFile = "credentials.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "COOPCAL_"
)

// Config is the top-level application configuration.
type Config struct {
	// CalendarID is the Google Calendar identifier events are read from.
	CalendarID string `yaml:"calendar_id"`

	// Timezone is the IANA zone used for month boundaries (e.g. "America/Los_Angeles").
	Timezone string `yaml:"timezone"`

	// CredentialsFile is the OAuth client-secrets JSON.
	CredentialsFile string `yaml:"credentials_file"`

	// TokenFile is where the OAuth token is persisted. Empty means the
	// default location under the user cache directory.
	TokenFile string `yaml:"token_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		CalendarID:      DefaultCalendarID,
		Timezone:        DefaultTimezone,
		CredentialsFile: DefaultCredentialsFile,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/coopcal/config.yaml (or the
// platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, "coopcal", "config.yaml"), nil
}

// Load returns the defaults overlaid with the YAML file at path.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Normalize fills empty values with defaults so that partially-filled
// files still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.CalendarID == "" {
		c.CalendarID = d.CalendarID
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = d.CredentialsFile
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// into the process environment. Missing files are ignored and existing
// variables are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from COOPCAL_* variables read through getenv
// (typically os.Getenv).
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(field *string, name string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + name)); v != "" {
			*field = v
		}
	}
	set(&c.CalendarID, "CALENDAR_ID")
	set(&c.Timezone, "TIMEZONE")
	set(&c.CredentialsFile, "CREDENTIALS_FILE")
	set(&c.TokenFile, "TOKEN_FILE")
	set(&c.LogLevel, "LOG_LEVEL")
	set(&c.LogFormat, "LOG_FORMAT")
}

// Validate checks required fields and that the timezone is known.
func (c *Config) Validate() error {
	if c.CalendarID == "" {
		return fmt.Errorf("calendar_id is required")
	}
	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials_file is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q, must be one of: text, json", c.LogFormat)
	}
	return nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, fmt.Errorf("timezone is required")
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
