package voice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-hero/pkg/tools"
)

// Session binds a Pipeline to a tool registry.
type Session struct {
	pipeline Pipeline
	registry *tools.Registry
	greeting string
	logger   *slog.Logger

	mu      sync.Mutex
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	calls   sync.WaitGroup
}

// NewSession creates a session. An empty greeting skips the opening prompt.
func NewSession(p Pipeline, r *tools.Registry, greeting string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		pipeline: p,
		registry: r,
		greeting: greeting,
		logger:   logger.With("component", "voice.session"),
	}
}

// Start declares the registry's tools, connects, and sends the greeting.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.pipeline.RegisterTools(s.registry.Manifest())
	s.pipeline.OnToolCall(s.handleToolCall)

	if err := s.pipeline.Start(s.ctx); err != nil {
		s.cancel()
		return fmt.Errorf("voice: start session: %w", err)
	}
	s.logger.Info("session started", "tools", s.registry.Len())

	if s.greeting != "" {
		if err := s.pipeline.Prompt(s.greeting); err != nil {
			return fmt.Errorf("voice: send greeting: %w", err)
		}
	}
	return nil
}

// handleToolCall runs each call on its own goroutine so the pipeline's
// receive loop keeps streaming audio while a tool blocks.
func (s *Session) handleToolCall(call ToolCall) {
	s.mu.Lock()
	if s.stopped || (s.ctx != nil && s.ctx.Err() != nil) {
		s.mu.Unlock()
		s.logger.Warn("tool call after session end dropped", "tool", call.Name, "id", call.ID)
		return
	}
	ctx := s.ctx
	s.calls.Add(1)
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	inv := tools.Invocation{ID: call.ID, Tool: call.Name, Args: tools.Args(call.Arguments)}
	if inv.ID == "" {
		inv = tools.NewInvocation(call.Name, inv.Args)
	}

	go func() {
		defer s.calls.Done()
		out := s.registry.Dispatch(ctx, inv)
		if err := s.pipeline.SubmitToolResult(call.ID, call.Name, out); err != nil {
			s.logger.Error("submit tool result failed", "tool", call.Name, "id", inv.ID, "error", err)
		}
	}()
}

// Wait blocks until in-flight tool calls have submitted their results.
func (s *Session) Wait() {
	s.calls.Wait()
}

// Stop cancels in-flight calls, waits for them, and closes the pipeline.
func (s *Session) Stop() error {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.calls.Wait()
	return s.pipeline.Stop()
}
