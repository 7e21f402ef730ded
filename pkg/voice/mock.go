package voice

import (
	"context"
	"sync"

	"github.com/teslashibe/go-hero/pkg/tools"
)

// SubmittedResult is a tool result captured by Mock.
type SubmittedResult struct {
	ID     string
	Name   string
	Result string
}

// Mock is a Pipeline for tests. Func fields override behaviour; captured
// calls are exposed for assertions.
type Mock struct {
	Callbacks

	mu        sync.Mutex
	connected bool

	StartFunc  func(ctx context.Context) error
	StopFunc   func() error
	PromptFunc func(text string) error
	SubmitFunc func(callID, name, result string) error

	Declarations []tools.FunctionDeclaration
	Prompts      []string
	Results      []SubmittedResult
	AudioSent    [][]byte
}

// NewMock creates a Mock.
func NewMock() *Mock { return &Mock{} }

func (m *Mock) Start(ctx context.Context) error {
	if m.StartFunc != nil {
		if err := m.StartFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	return nil
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	if m.StopFunc != nil {
		return m.StopFunc()
	}
	return nil
}

func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Mock) SendAudio(pcm []byte) error {
	m.mu.Lock()
	m.AudioSent = append(m.AudioSent, pcm)
	m.mu.Unlock()
	return nil
}

func (m *Mock) RegisterTools(decls []tools.FunctionDeclaration) {
	m.mu.Lock()
	m.Declarations = decls
	m.mu.Unlock()
}

func (m *Mock) SubmitToolResult(callID, name, result string) error {
	m.mu.Lock()
	m.Results = append(m.Results, SubmittedResult{ID: callID, Name: name, Result: result})
	m.mu.Unlock()
	if m.SubmitFunc != nil {
		return m.SubmitFunc(callID, name, result)
	}
	return nil
}

func (m *Mock) Prompt(text string) error {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, text)
	m.mu.Unlock()
	if m.PromptFunc != nil {
		return m.PromptFunc(text)
	}
	return nil
}

func (m *Mock) Metrics() Metrics { return Metrics{} }

// SubmittedResults returns a copy of the captured tool results.
func (m *Mock) SubmittedResults() []SubmittedResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SubmittedResult(nil), m.Results...)
}

var _ Pipeline = (*Mock)(nil)

// Audio returns a copy of the audio chunks sent.
func (m *Mock) Audio() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.AudioSent...)
}

// SentPrompts returns a copy of the prompts sent.
func (m *Mock) SentPrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Prompts...)
}
