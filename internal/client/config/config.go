package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the clipher CLI.
//
// Fields:
//   - ServerURL: base URL (or host:port) of the server HTTP API.
//   - ProfilePath: SQLite file holding local profiles.
//   - RequestTimeout: per-request HTTP timeout.
//   - Command: positional arguments left after flag parsing.
type Config struct {
	ServerURL      string
	ProfilePath    string
	RequestTimeout time.Duration
	Command        []string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.ProfilePath = defaultProfilePath()
	c.RequestTimeout = 30 * time.Second
}

func defaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "clipher-profile.db"
	}
	return filepath.Join(dir, "clipher", "profile.db")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags. Later sources take precedence
// over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
