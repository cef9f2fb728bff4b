// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server        ServerConfig   `yaml:"server"`
	VLC           VLCConfig      `yaml:"vlc"`
	Queue         QueueConfig    `yaml:"queue"`
	Monitor       MonitorConfig  `yaml:"monitor"`
	Notifications NotifyConfig   `yaml:"notifications"`
	Metadata      MetadataConfig `yaml:"metadata"`
}

// ServerConfig represents the HTTP API server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8090"`
}

// VLCConfig represents the VLC HTTP interface connection settings.
type VLCConfig struct {
	Host      string `yaml:"host" default:"localhost"`
	Port      int    `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	Password  string `yaml:"password" validate:"required"`
	TimeoutMs int    `yaml:"timeout_ms" default:"5000" validate:"gte=500,lte=30000"`
}

// QueueConfig represents queue persistence settings.
type QueueConfig struct {
	BackupFile string `yaml:"backup_file" default:"queue_backup.json"`
}

// MonitorConfig represents the state monitor polling policy.
// The poll interval has a hard lower bound so the player is never hammered.
type MonitorConfig struct {
	PollIntervalMs int     `yaml:"poll_interval_ms" default:"1000" validate:"gte=250,lte=60000"`
	CooldownMs     int     `yaml:"cooldown_ms" default:"3000" validate:"gte=0,lte=60000"`
	GraceWindowMs  int     `yaml:"grace_window_ms" default:"5000" validate:"gte=0,lte=60000"`
	EndThreshold   float64 `yaml:"end_threshold" default:"0.95" validate:"gt=0,lte=1"`
}

// NotifyConfig represents notification delivery configuration.
type NotifyConfig struct {
	Sinks []SinkConfig `yaml:"sinks"`
}

// SinkConfig represents a single notification sink.
type SinkConfig struct {
	Type     string         `yaml:"type" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// MetadataConfig represents the movie metadata lookup configuration.
// Lookup is disabled when the API key is empty.
type MetadataConfig struct {
	TMDBAPIKey string `yaml:"tmdb_api_key"`
	Language   string `yaml:"language" default:"en-US"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for secrets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("VLC_PASSWORD"); v != "" {
		c.VLC.Password = v
	}
	if v := os.Getenv("VLC_HOST"); v != "" {
		c.VLC.Host = v
	}
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		c.Metadata.TMDBAPIKey = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// PollInterval returns the monitor poll interval as a duration.
func (c *MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Cooldown returns the notification cooldown window as a duration.
func (c *MonitorConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// GraceWindow returns the self-command attribution window as a duration.
func (c *MonitorConfig) GraceWindow() time.Duration {
	return time.Duration(c.GraceWindowMs) * time.Millisecond
}

// Timeout returns the VLC request timeout as a duration.
func (c *VLCConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
