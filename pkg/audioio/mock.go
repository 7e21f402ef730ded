package audioio

import (
	"context"
	"log/slog"
	"sync"
)

// MockSource replays queued chunks. Push feeds it while running.
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	out     chan []byte
	pending [][]byte
}

// NewMockSource creates a source that emits chunks after Start.
func NewMockSource(cfg Config, logger *slog.Logger, chunks ...[]byte) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSource{cfg: cfg, logger: logger, pending: chunks}
}

func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.out != nil {
		return nil
	}
	m.out = make(chan []byte, len(m.pending)+16)
	for _, c := range m.pending {
		m.out <- c
	}
	m.pending = nil
	go func() {
		<-ctx.Done()
		_ = m.Stop()
	}()
	m.logger.Debug("mock source started", "rate", m.cfg.SampleRate)
	return nil
}

// Push emits a chunk, or queues it until Start.
func (m *MockSource) Push(pcm []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.out == nil {
		m.pending = append(m.pending, pcm)
		return
	}
	select {
	case m.out <- pcm:
	default:
	}
}

func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.out != nil {
		close(m.out)
		m.out = nil
	}
	return nil
}

// Stream returns the chunk channel. Call after Start.
func (m *MockSource) Stream() <-chan []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out
}

func (m *MockSource) Config() Config { return m.cfg }
func (m *MockSource) Name() string   { return string(BackendMock) }
func (m *MockSource) Close() error   { return m.Stop() }

// MockSink records everything written to it.
type MockSink struct {
	cfg Config

	mu      sync.Mutex
	running bool
	written []byte
	clears  int
}

// NewMockSink creates a recording sink.
func NewMockSink(cfg Config) *MockSink {
	return &MockSink{cfg: cfg}
}

func (m *MockSink) Start(context.Context) error {
	m.mu.Lock()
	m.running = true
	m.mu.Unlock()
	return nil
}

func (m *MockSink) Stop() error {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	return nil
}

func (m *MockSink) Write(_ context.Context, pcm []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return ErrClosed
	}
	m.written = append(m.written, pcm...)
	return nil
}

func (m *MockSink) Flush(context.Context) error { return nil }

func (m *MockSink) Clear() error {
	m.mu.Lock()
	m.written = nil
	m.clears++
	m.mu.Unlock()
	return nil
}

// Written returns a copy of the audio written since the last Clear.
func (m *MockSink) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written...)
}

// Clears returns how many times Clear was called.
func (m *MockSink) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

func (m *MockSink) Config() Config { return m.cfg }
func (m *MockSink) Name() string   { return string(BackendMock) }
func (m *MockSink) Close() error   { return m.Stop() }

var (
	_ Source = (*MockSource)(nil)
	_ Sink   = (*MockSink)(nil)
)
