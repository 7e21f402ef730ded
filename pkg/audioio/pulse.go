package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
)

func newPulseClient(cfg Config) (*pulse.Client, error) {
	name := cfg.AppName
	if name == "" {
		name = "go-hero"
	}
	c, err := pulse.NewClient(pulse.ClientApplicationName(name))
	if err != nil {
		return nil, fmt.Errorf("audioio: connect to pulse: %w", err)
	}
	return c, nil
}

// PulseSource records from a PulseAudio source.
type PulseSource struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	client *pulse.Client
	stream *pulse.RecordStream
	out    chan []byte
	buf    []int16
}

// NewPulseSource connects to the sound server.
func NewPulseSource(cfg Config, logger *slog.Logger) (*PulseSource, error) {
	client, err := newPulseClient(cfg)
	if err != nil {
		return nil, err
	}
	return &PulseSource{
		cfg:    cfg,
		logger: logger.With("component", "audioio.pulse.source"),
		client: client,
	}, nil
}

// Start opens the record stream. Pulse calls are made without holding mu:
// the server's callbacks take it.
func (s *PulseSource) Start(ctx context.Context) error {
	s.mu.Lock()
	client, running := s.client, s.stream != nil
	s.mu.Unlock()
	if client == nil {
		return ErrClosed
	}
	if running {
		return nil
	}

	opts := []pulse.RecordOption{
		pulse.RecordMono,
		pulse.RecordSampleRate(s.cfg.SampleRate),
		pulse.RecordBufferFragmentSize(uint32(s.cfg.BufferBytes())),
		pulse.RecordMediaName("microphone"),
	}
	if s.cfg.Device != "" {
		dev, err := client.SourceByID(s.cfg.Device)
		if err != nil {
			return fmt.Errorf("audioio: source %q: %w", s.cfg.Device, err)
		}
		opts = append(opts, pulse.RecordSource(dev))
	}

	out := make(chan []byte, 32)
	s.mu.Lock()
	s.out, s.buf = out, nil
	s.mu.Unlock()

	stream, err := client.NewRecord(pulse.Int16Writer(s.write(out)), opts...)
	if err != nil {
		s.mu.Lock()
		s.out = nil
		s.mu.Unlock()
		return fmt.Errorf("audioio: open record stream: %w", err)
	}
	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()
	stream.Start()

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()
	s.logger.Info("microphone started", "rate", s.cfg.SampleRate, "device", s.cfg.Device)
	return nil
}

// write regroups the server's fragments into BufferSize chunks. A full
// channel drops the chunk rather than stalling the server connection.
func (s *PulseSource) write(out chan []byte) func([]int16) (int, error) {
	size := s.cfg.BufferSize()
	return func(p []int16) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.out != out {
			return len(p), nil
		}
		s.buf = append(s.buf, p...)
		for len(s.buf) >= size {
			chunk := SamplesToBytes(s.buf[:size])
			s.buf = s.buf[size:]
			select {
			case out <- chunk:
			default:
				s.logger.Debug("capture overrun, dropping chunk")
			}
		}
		return len(p), nil
	}
}

func (s *PulseSource) Stop() error {
	s.mu.Lock()
	stream := s.stream
	if stream == nil {
		s.mu.Unlock()
		return nil
	}
	s.stream = nil
	close(s.out)
	s.out = nil
	s.mu.Unlock()

	stream.Stop()
	stream.Close()
	s.logger.Info("microphone stopped")
	return nil
}

func (s *PulseSource) Stream() <-chan []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out
}

func (s *PulseSource) Config() Config { return s.cfg }
func (s *PulseSource) Name() string   { return string(BackendPulse) }

func (s *PulseSource) Close() error {
	_ = s.Stop()
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()
	if client != nil {
		client.Close()
	}
	return nil
}

// PulseSink plays to a PulseAudio sink. Written audio is queued and pulled
// by the server; an empty queue plays silence.
type PulseSink struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	client *pulse.Client
	stream *pulse.PlaybackStream
	queue  []int16
}

// NewPulseSink connects to the sound server.
func NewPulseSink(cfg Config, logger *slog.Logger) (*PulseSink, error) {
	client, err := newPulseClient(cfg)
	if err != nil {
		return nil, err
	}
	return &PulseSink{
		cfg:    cfg,
		logger: logger.With("component", "audioio.pulse.sink"),
		client: client,
	}, nil
}

func (s *PulseSink) Start(ctx context.Context) error {
	s.mu.Lock()
	client, running := s.client, s.stream != nil
	s.mu.Unlock()
	if client == nil {
		return ErrClosed
	}
	if running {
		return nil
	}

	opts := []pulse.PlaybackOption{
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(s.cfg.SampleRate),
		pulse.PlaybackLatency(s.cfg.BufferDuration.Seconds() * 5),
		pulse.PlaybackMediaName("assistant"),
	}
	if s.cfg.Device != "" {
		dev, err := client.SinkByID(s.cfg.Device)
		if err != nil {
			return fmt.Errorf("audioio: sink %q: %w", s.cfg.Device, err)
		}
		opts = append(opts, pulse.PlaybackSink(dev))
	}

	stream, err := client.NewPlayback(pulse.Int16Reader(s.read), opts...)
	if err != nil {
		return fmt.Errorf("audioio: open playback stream: %w", err)
	}
	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()
	stream.Start()

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()
	s.logger.Info("speaker started", "rate", s.cfg.SampleRate, "device", s.cfg.Device)
	return nil
}

func (s *PulseSink) read(p []int16) (int, error) {
	s.mu.Lock()
	n := copy(p, s.queue)
	s.queue = s.queue[n:]
	s.mu.Unlock()
	clear(p[n:])
	return len(p), nil
}

func (s *PulseSink) Write(_ context.Context, pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ErrClosed
	}
	s.queue = append(s.queue, BytesToSamples(pcm)...)
	return nil
}

func (s *PulseSink) Flush(ctx context.Context) error {
	t := time.NewTicker(s.cfg.BufferDuration)
	defer t.Stop()
	for {
		s.mu.Lock()
		empty := len(s.queue) == 0
		s.mu.Unlock()
		if empty {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (s *PulseSink) Clear() error {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
	return nil
}

func (s *PulseSink) Stop() error {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.queue = nil
	s.mu.Unlock()
	if stream == nil {
		return nil
	}

	stream.Stop()
	stream.Close()
	s.logger.Info("speaker stopped")
	return nil
}

func (s *PulseSink) Config() Config { return s.cfg }
func (s *PulseSink) Name() string   { return string(BackendPulse) }

func (s *PulseSink) Close() error {
	_ = s.Stop()
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()
	if client != nil {
		client.Close()
	}
	return nil
}

var (
	_ Source = (*PulseSource)(nil)
	_ Sink   = (*PulseSink)(nil)
)
