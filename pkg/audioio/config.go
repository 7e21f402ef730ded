// Package audioio captures microphone audio and plays speech through the
// speaker. Audio is PCM16 little-endian mono throughout.
//
// Backends:
//   - pulse: PulseAudio (or PipeWire's pulse server) over its native protocol
//   - mock: in-memory, for tests and headless runs
package audioio

import (
	"fmt"
	"time"
)

// Backend selects the audio implementation.
type Backend string

const (
	BackendAuto  Backend = "auto"
	BackendPulse Backend = "pulse"
	BackendMock  Backend = "mock"
)

// Config configures a Source or Sink.
type Config struct {
	Backend        Backend       `yaml:"backend"`
	SampleRate     int           `yaml:"sample_rate"`
	BufferDuration time.Duration `yaml:"buffer_duration"`

	// Device is a pulse source or sink name; empty selects the default.
	Device string `yaml:"device"`

	// AppName is shown in the sound server's mixer.
	AppName string `yaml:"app_name"`
}

// CaptureConfig is the microphone format the voice runtime expects.
func CaptureConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     16000,
		BufferDuration: 20 * time.Millisecond,
		AppName:        "go-hero",
	}
}

// PlaybackConfig is the format the voice runtime speaks in.
func PlaybackConfig() Config {
	c := CaptureConfig()
	c.SampleRate = 24000
	return c
}

// Validate checks sample rate and buffer size.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("audioio: sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("audioio: buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize is the number of samples per chunk.
func (c Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes is the size of a chunk in bytes.
func (c Config) BufferBytes() int {
	return c.BufferSize() * 2
}
