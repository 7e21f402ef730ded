package voice

import (
	"sync"
	"time"
)

// Metrics summarises a pipeline's traffic and response latency.
type Metrics struct {
	AudioChunksIn  int
	AudioChunksOut int
	ToolCalls      int
	Turns          int

	// FirstAudioLatency is the time from the first audio sent in a turn to
	// the first audio received back, for the last completed turn.
	FirstAudioLatency time.Duration
}

// FormatLatency renders the last first-audio latency.
func (m Metrics) FormatLatency() string {
	if m.FirstAudioLatency == 0 {
		return "---ms"
	}
	return m.FirstAudioLatency.Round(time.Millisecond).String()
}

// MetricsCollector is goroutine-safe.
type MetricsCollector struct {
	mu         sync.Mutex
	m          Metrics
	turnStart  time.Time
	firstAudio bool
	now        func() time.Time
}

// NewMetricsCollector creates a collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{now: time.Now}
}

// AudioIn records a chunk sent to the runtime.
func (c *MetricsCollector) AudioIn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.AudioChunksIn++
	if c.turnStart.IsZero() {
		c.turnStart = c.now()
		c.firstAudio = false
	}
}

// AudioOut records a chunk received from the runtime.
func (c *MetricsCollector) AudioOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.AudioChunksOut++
	if !c.firstAudio && !c.turnStart.IsZero() {
		c.m.FirstAudioLatency = c.now().Sub(c.turnStart)
		c.firstAudio = true
	}
}

// ToolCall records a function call.
func (c *MetricsCollector) ToolCall() {
	c.mu.Lock()
	c.m.ToolCalls++
	c.mu.Unlock()
}

// TurnComplete closes the current turn.
func (c *MetricsCollector) TurnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.Turns++
	c.turnStart = time.Time{}
}

// Snapshot returns the current totals.
func (c *MetricsCollector) Snapshot() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m
}
