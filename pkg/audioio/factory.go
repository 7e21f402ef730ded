package audioio

import (
	"fmt"
	"log/slog"
)

func resolve(b Backend) Backend {
	if b == "" || b == BackendAuto {
		return BackendPulse
	}
	return b
}

// NewSource creates a capture source for cfg.Backend.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	backend := resolve(cfg.Backend)
	logger.Info("creating audio source", "backend", backend, "sample_rate", cfg.SampleRate)

	switch backend {
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	case BackendPulse:
		return NewPulseSource(cfg, logger)
	default:
		return nil, fmt.Errorf("audioio: unsupported backend %q", backend)
	}
}

// NewSink creates a playback sink for cfg.Backend.
func NewSink(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	backend := resolve(cfg.Backend)
	logger.Info("creating audio sink", "backend", backend, "sample_rate", cfg.SampleRate)

	switch backend {
	case BackendMock:
		return NewMockSink(cfg), nil
	case BackendPulse:
		return NewPulseSink(cfg, logger)
	default:
		return nil, fmt.Errorf("audioio: unsupported backend %q", backend)
	}
}
