package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/teslashibe/go-hero/pkg/tools"
)

// Common pipeline errors.
var (
	ErrNotConnected   = errors.New("voice: pipeline not connected")
	ErrAlreadyStarted = errors.New("voice: pipeline already started")
)

// Pipeline is a live session with a hosted voice runtime.
type Pipeline interface {
	// Start connects and begins processing. RegisterTools must be called
	// before Start for the declarations to reach the runtime.
	Start(ctx context.Context) error
	Stop() error
	IsConnected() bool

	// SendAudio streams PCM16 mono at InputSampleRate.
	SendAudio(pcm []byte) error

	// OnAudioOut receives PCM16 mono at OutputSampleRate.
	OnAudioOut(fn func(pcm []byte))
	OnTranscript(fn func(role, text string, final bool))
	OnResponse(fn func(text string))
	OnError(fn func(err error))

	RegisterTools(decls []tools.FunctionDeclaration)
	OnToolCall(fn func(call ToolCall))
	SubmitToolResult(callID, name, result string) error

	// Prompt sends a user text turn and asks the model to respond.
	Prompt(text string) error

	Metrics() Metrics
}

// Factory builds a Pipeline for a provider.
type Factory func(cfg Config) (Pipeline, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[Provider]Factory{}
)

// Register makes a provider available to New.
func Register(p Provider, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[p] = f
}

// New validates cfg and builds a pipeline for cfg.Provider.
func New(cfg Config) (Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("voice: provider %q not registered (import pkg/voice/bundled)", cfg.Provider)
	}
	return f(cfg)
}

// Callbacks holds pipeline callbacks. Implementations embed it.
type Callbacks struct {
	mu           sync.RWMutex
	onAudioOut   func([]byte)
	onTranscript func(role, text string, final bool)
	onResponse   func(string)
	onError      func(error)
	onToolCall   func(ToolCall)
}

func (c *Callbacks) OnAudioOut(fn func([]byte)) {
	c.mu.Lock()
	c.onAudioOut = fn
	c.mu.Unlock()
}

func (c *Callbacks) OnTranscript(fn func(role, text string, final bool)) {
	c.mu.Lock()
	c.onTranscript = fn
	c.mu.Unlock()
}

func (c *Callbacks) OnResponse(fn func(string)) {
	c.mu.Lock()
	c.onResponse = fn
	c.mu.Unlock()
}

func (c *Callbacks) OnError(fn func(error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

func (c *Callbacks) OnToolCall(fn func(ToolCall)) {
	c.mu.Lock()
	c.onToolCall = fn
	c.mu.Unlock()
}

// EmitAudioOut invokes the audio callback if set.
func (c *Callbacks) EmitAudioOut(pcm []byte) {
	c.mu.RLock()
	fn := c.onAudioOut
	c.mu.RUnlock()
	if fn != nil {
		fn(pcm)
	}
}

// EmitTranscript invokes the transcript callback if set.
func (c *Callbacks) EmitTranscript(role, text string, final bool) {
	c.mu.RLock()
	fn := c.onTranscript
	c.mu.RUnlock()
	if fn != nil {
		fn(role, text, final)
	}
}

// EmitResponse invokes the response callback if set.
func (c *Callbacks) EmitResponse(text string) {
	c.mu.RLock()
	fn := c.onResponse
	c.mu.RUnlock()
	if fn != nil {
		fn(text)
	}
}

// EmitError invokes the error callback if set.
func (c *Callbacks) EmitError(err error) {
	c.mu.RLock()
	fn := c.onError
	c.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// EmitToolCall invokes the tool-call callback if set.
func (c *Callbacks) EmitToolCall(call ToolCall) {
	c.mu.RLock()
	fn := c.onToolCall
	c.mu.RUnlock()
	if fn != nil {
		fn(call)
	}
}
