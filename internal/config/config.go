package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for the polling cadence. The 3s message poll and 30s presence
// heartbeat bound worst-case staleness; they are config-overridable but the
// server contract assumes roughly these rates.
const (
	DefaultPollInterval     = 3 * time.Second
	DefaultPresenceInterval = 30 * time.Second
)

// Config represents the global ~/.charla/config.toml.
type Config struct {
	ServerURL      string `toml:"server_url"`
	Email          string `toml:"email"`
	Password       string `toml:"password,omitempty"`
	DefaultProfile string `toml:"default_profile"`

	PollIntervalSeconds     int  `toml:"poll_interval_seconds"`
	PresenceIntervalSeconds int  `toml:"presence_interval_seconds"`
	Notifications           bool `toml:"notifications"`
}

// PollInterval returns the configured message poll interval.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// PresenceInterval returns the configured presence heartbeat interval.
func (c *Config) PresenceInterval() time.Duration {
	if c.PresenceIntervalSeconds <= 0 {
		return DefaultPresenceInterval
	}
	return time.Duration(c.PresenceIntervalSeconds) * time.Second
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
