package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. An empty config path means "built-in defaults".

const (
	DefaultPostalCode   = "56632"
	DefaultEndpoint     = "https://portal.postnord.com/api/sendoutarrival/closest"
	DefaultTimeout      = 20
	DefaultOutputPath   = "docs/calendar.ics"
	DefaultTimezone     = "Europe/Stockholm"
	DefaultSummary      = "Postutdelning"
	DefaultEventURL     = "https://www.postnord.se/vara-verktyg/sok-utdelningsdag/"
	DefaultUIDDomain    = "example.local"
	DefaultProductID    = "-//PostNord Utdelningskalender//postnord.se//"
	DefaultLogLevel     = "info"
	defaultCalendarName = "Postutdelning"
)

// Config is the top-level application configuration.
type Config struct {
	// PostalCode selects which delivery schedule is fetched.
	PostalCode string `yaml:"postal_code" json:"postal_code"`

	// Endpoint is the delivery-date API URL without query string.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Timeout bounds the HTTP request, in seconds.
	Timeout int `yaml:"timeout" json:"timeout"`

	// OutputPath is where the calendar file is written.
	OutputPath string `yaml:"output_path" json:"output_path"`

	// CalendarName is the X-WR-CALNAME display name. Derived from
	// PostalCode when empty.
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`

	// Timezone is the IANA timezone advertised via X-WR-TIMEZONE.
	Timezone string `yaml:"timezone" json:"timezone"`

	Summary   string `yaml:"summary" json:"summary"`
	EventURL  string `yaml:"event_url" json:"event_url"`
	UIDDomain string `yaml:"uid_domain" json:"uid_domain"`
	ProductID string `yaml:"product_id" json:"product_id"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		PostalCode: DefaultPostalCode,
		Endpoint:   DefaultEndpoint,
		Timeout:    DefaultTimeout,
		OutputPath: DefaultOutputPath,
		Timezone:   DefaultTimezone,
		Summary:    DefaultSummary,
		EventURL:   DefaultEventURL,
		UIDDomain:  DefaultUIDDomain,
		ProductID:  DefaultProductID,
		LogLevel:   DefaultLogLevel,
	}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.PostalCode == "" {
		c.PostalCode = DefaultPostalCode
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.OutputPath == "" {
		c.OutputPath = DefaultOutputPath
	}
	if c.CalendarName == "" {
		c.CalendarName = defaultCalendarName + " " + c.PostalCode
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Summary == "" {
		c.Summary = DefaultSummary
	}
	if c.EventURL == "" {
		c.EventURL = DefaultEventURL
	}
	if c.UIDDomain == "" {
		c.UIDDomain = DefaultUIDDomain
	}
	if c.ProductID == "" {
		c.ProductID = DefaultProductID
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// SetPostalCode changes the postal code and re-derives the calendar name
// when it was still the derived default.
func (c *Config) SetPostalCode(code string) {
	if code == "" || code == c.PostalCode {
		return
	}
	if c.CalendarName == defaultCalendarName+" "+c.PostalCode {
		c.CalendarName = defaultCalendarName + " " + code
	}
	c.PostalCode = code
}

// RequestTimeout returns Timeout as a time.Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Validate reports configuration values that cannot work at runtime.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint: unsupported scheme %q", u.Scheme)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If path is empty: return the defaults, touch nothing on disk.
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".postcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
