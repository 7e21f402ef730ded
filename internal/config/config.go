// Package config loads go-hero configuration from .env, an optional YAML
// file, and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultConfigFile is read when present and no explicit path is given.
const DefaultConfigFile = "hero.yaml"

// Config aggregates all application configuration.
// Priority: env vars > config file > defaults.
type Config struct {
	Voice     VoiceConfig     `yaml:"voice"`
	Search    SearchConfig    `yaml:"search"`
	Weather   WeatherConfig   `yaml:"weather"`
	Spotify   SpotifyConfig   `yaml:"spotify"`
	Desktop   DesktopConfig   `yaml:"desktop"`
	Audio     AudioConfig     `yaml:"audio"`
	Dashboard DashboardConfig `yaml:"dashboard"`

	LogLevel    string `yaml:"log_level" env:"HERO_LOG_LEVEL" env-default:"info"`
	SystemTools bool   `yaml:"system_tools" env:"HERO_SYSTEM_TOOLS" env-default:"false"`
}

// VoiceConfig configures the hosted speech runtime.
type VoiceConfig struct {
	GoogleAPIKey string `yaml:"google_api_key" env:"GOOGLE_API_KEY"`
	Model        string `yaml:"model" env:"HERO_MODEL" env-default:"gemini-2.0-flash-live-001"`
	Voice        string `yaml:"voice" env:"HERO_VOICE" env-default:"Puck"`
	Language     string `yaml:"language" env:"HERO_LANGUAGE" env-default:"en-IN"`
}

// SearchConfig holds the keyed search credentials. Both empty means the
// keyless provider answers every query.
type SearchConfig struct {
	APIKey   string        `yaml:"api_key" env:"GOOGLE_SEARCH_API_KEY"`
	EngineID string        `yaml:"engine_id" env:"SEARCH_ENGINE_ID"`
	Timeout  time.Duration `yaml:"timeout" env:"HERO_SEARCH_TIMEOUT" env-default:"10s"`
}

// WeatherConfig configures geocoding and forecast lookups.
type WeatherConfig struct {
	MapsAPIKey string        `yaml:"maps_api_key" env:"GOOGLE_MAPS_API_KEY"`
	Timeout    time.Duration `yaml:"timeout" env:"HERO_WEATHER_TIMEOUT" env-default:"5s"`
}

// SpotifyConfig holds optional Spotify Web API client credentials.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
}

// DesktopConfig configures desktop automation.
type DesktopConfig struct {
	Workers        int    `yaml:"workers" env:"HERO_WORKERS" env-default:"4"`
	SerializeInput bool   `yaml:"serialize_input" env:"HERO_SERIALIZE_INPUT" env-default:"false"`
	OCRLanguage    string `yaml:"ocr_language" env:"HERO_OCR_LANGUAGE" env-default:"eng"`
}

// AudioConfig selects the microphone and speaker. Empty devices use the
// sound server defaults.
type AudioConfig struct {
	Backend      string `yaml:"backend" env:"HERO_AUDIO_BACKEND" env-default:"auto"`
	InputDevice  string `yaml:"input_device" env:"HERO_AUDIO_INPUT"`
	OutputDevice string `yaml:"output_device" env:"HERO_AUDIO_OUTPUT"`
}

// DashboardConfig configures the web dashboard. An empty port disables it.
type DashboardConfig struct {
	Port string `yaml:"port" env:"HERO_DASHBOARD_PORT" env-default:"8181"`
}

// HasSearchCredentials reports whether the keyed search provider can be used.
func (c *Config) HasSearchCredentials() bool {
	return c.Search.APIKey != "" && c.Search.EngineID != ""
}

// HasSpotifyCredentials reports whether track lookup can be used.
func (c *Config) HasSpotifyCredentials() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

// LoadEnvFile loads KEY=VALUE pairs from path (".env" when empty) into the
// process environment. A missing file is not an error; existing variables
// are never overwritten.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load reads the env file, then the YAML config file when it exists, then
// the environment.
func Load(envFile, configFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	explicit := configFile != ""
	if !explicit {
		configFile = DefaultConfigFile
	}

	var cfg Config
	if _, err := os.Stat(configFile); err == nil {
		if err := cleanenv.ReadConfig(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
		return &cfg, nil
	} else if explicit {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return &cfg, nil
}
