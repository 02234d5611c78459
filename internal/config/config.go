package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// Config is the persistent application configuration
type Config struct {
	// Server connection
	Server ServerConfig `json:"server"`

	// Feed behaviour
	Feed FeedConfig `json:"feed"`

	// UI Preferences
	UI UIConfig `json:"ui"`

	// LogLevel is "debug", "info", "warn" or "error"
	LogLevel string `json:"log_level"`
}

// ServerConfig holds the Tatami server settings
type ServerConfig struct {
	URL               string  `json:"url"`                 // e.g. https://tatami.example.com
	Token             string  `json:"token,omitempty"`     // sent as x-auth-token
	RequestsPerSecond float64 `json:"requests_per_second"` // client-side rate limit
}

// FeedConfig holds timeline settings
type FeedConfig struct {
	StartContext     string `json:"start_context"` // "home", "tag:go", "group:42", ...
	PollIntervalMs   int    `json:"poll_interval_ms"`
	RequestTimeoutMs int    `json:"request_timeout_ms"`
	PageSize         int    `json:"page_size"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme     string `json:"theme"`      // glamour style: "dark" or "light"
	TimeBands bool   `json:"time_bands"` // group statuses under "Just now", "Today", ...
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			RequestsPerSecond: 5,
		},
		Feed: FeedConfig{
			StartContext:     "home",
			PollIntervalMs:   20000,
			RequestTimeoutMs: 15000,
			PageSize:         20,
		},
		UI: UIConfig{
			Theme:     "dark",
			TimeBands: true,
		},
		LogLevel: "info",
	}
}

// Dir returns the data directory (~/.tatami)
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tatami")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads config from path (ConfigPath when empty), or returns
// defaults when the file does not exist. Environment overrides are
// applied in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		// Comments and trailing commas are allowed in the file.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.AutoPopulateFromEnv()
	return cfg, nil
}

// Save writes config to path (ConfigPath when empty)
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // token lives here
}

// AutoPopulateFromEnv applies TATAMI_* environment overrides
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv("TATAMI_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("TATAMI_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("TATAMI_CONTEXT"); v != "" {
		c.Feed.StartContext = v
	}
	if v := os.Getenv("TATAMI_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return errors.New("server url is required (set server.url, TATAMI_URL or --url)")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server url %q is not an absolute URL", c.Server.URL)
	}
	if c.Feed.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be positive, got %dms", c.Feed.PollIntervalMs)
	}
	if c.Feed.RequestTimeoutMs <= 0 {
		return fmt.Errorf("request timeout must be positive, got %dms", c.Feed.RequestTimeoutMs)
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.Feed.PageSize)
	}
	if c.Server.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive, got %v", c.Server.RequestsPerSecond)
	}
	return nil
}

// PollInterval is Feed.PollIntervalMs as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Feed.PollIntervalMs) * time.Millisecond
}

// SetPollInterval stores d, rounded to milliseconds
func (c *Config) SetPollInterval(d time.Duration) {
	c.Feed.PollIntervalMs = int(d / time.Millisecond)
}

// RequestTimeout is Feed.RequestTimeoutMs as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Feed.RequestTimeoutMs) * time.Millisecond
}
