// Package hero assembles the HERO desktop voice assistant: the tool
// registry, the hosted voice session, local audio, and the dashboard.
package hero

import (
	"github.com/teslashibe/go-hero/internal/config"
)

// Config holds everything App needs. Flag parsing lives in cmd/hero; this
// struct is data only.
type Config struct {
	Settings *config.Config

	// Debug forces debug logging regardless of Settings.LogLevel.
	Debug bool

	// NoAudio runs without microphone and speaker: the voice session still
	// connects, and tools stay reachable from the dashboard.
	NoAudio bool
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Settings == nil {
		return &ConfigError{Field: "Settings", Message: "configuration not loaded"}
	}
	if c.Settings.Voice.GoogleAPIKey == "" {
		return &ConfigError{Field: "GoogleAPIKey", Message: "GOOGLE_API_KEY environment variable is required"}
	}
	if c.Settings.Desktop.Workers < 1 {
		return &ConfigError{Field: "Workers", Message: "HERO_WORKERS must be at least 1"}
	}
	return nil
}

// LogLevel is the effective log level.
func (c *Config) LogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.Settings.LogLevel
}

// ConfigError is a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
