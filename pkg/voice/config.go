package voice

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Provider identifies a hosted voice runtime.
type Provider string

const (
	// ProviderGemini is the Gemini Live bidirectional streaming API.
	ProviderGemini Provider = "gemini"
)

// Audio formats exchanged with the runtime: PCM16 little-endian mono.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000
)

// Defaults.
const (
	DefaultModel    = "gemini-2.0-flash-live-001"
	DefaultVoice    = "Puck"
	DefaultLanguage = "en-IN"
)

// Config configures a Pipeline.
type Config struct {
	Provider     Provider
	GoogleAPIKey string
	Model        string
	Voice        string
	Language     string
	SystemPrompt string

	// Endpoint overrides the provider's websocket URL.
	Endpoint string

	DialTimeout time.Duration
	Logger      *slog.Logger
}

// DefaultConfig returns a Gemini configuration without credentials.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderGemini,
		Model:       DefaultModel,
		Voice:       DefaultVoice,
		Language:    DefaultLanguage,
		DialTimeout: 10 * time.Second,
	}
}

// Validate reports the first missing or invalid field.
func (c Config) Validate() error {
	if c.Provider == "" {
		return errors.New("voice: provider is required")
	}
	if c.GoogleAPIKey == "" && c.Endpoint == "" {
		return fmt.Errorf("voice: %s requires GOOGLE_API_KEY", c.Provider)
	}
	if c.Model == "" {
		return errors.New("voice: model is required")
	}
	if c.Voice == "" {
		return errors.New("voice: voice is required")
	}
	if c.DialTimeout < 0 {
		return errors.New("voice: dial timeout must be non-negative")
	}
	return nil
}

// WithAPIKey returns a copy with the API key set.
func (c Config) WithAPIKey(key string) Config {
	c.GoogleAPIKey = key
	return c
}

// WithModel returns a copy with the model set.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithVoice returns a copy with the voice and language set.
func (c Config) WithVoice(voice, language string) Config {
	c.Voice = voice
	c.Language = language
	return c
}

// WithSystemPrompt returns a copy with the system instruction set.
func (c Config) WithSystemPrompt(prompt string) Config {
	c.SystemPrompt = prompt
	return c
}

// WithLogger returns a copy with the logger set.
func (c Config) WithLogger(l *slog.Logger) Config {
	c.Logger = l
	return c
}
