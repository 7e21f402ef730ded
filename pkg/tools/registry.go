package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for registry operations.
var (
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tools: duplicate tool name")

	// ErrInvalidTool is returned for a tool without a name or handler.
	ErrInvalidTool = errors.New("tools: invalid tool")

	// ErrUnknownTool is carried by the result of invoking an unregistered tool.
	ErrUnknownTool = errors.New("tools: unknown tool")
)

// Invocation is one request from the runtime to run a tool.
type Invocation struct {
	ID   string `json:"id"`
	Tool string `json:"tool"`
	Args Args   `json:"args"`
}

// NewInvocation builds an invocation with a fresh id.
func NewInvocation(tool string, args Args) Invocation {
	return Invocation{ID: uuid.NewString(), Tool: tool, Args: args}
}

// Registry holds tools in registration order.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	order   []string
	logger  *slog.Logger
	metrics *Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l.With("component", "tools.registry")
		}
	}
}

// WithMetrics records invocation metrics.
func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:  make(map[string]Tool),
		logger: slog.Default().With("component", "tools.registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds tools. Names must be unique across the registry. A batch
// with any invalid or duplicate tool registers nothing.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make(map[string]bool, len(tools))
	for _, t := range tools {
		if t.Name == "" || t.Handler == nil {
			return fmt.Errorf("%w: %q", ErrInvalidTool, t.Name)
		}
		if _, ok := r.tools[t.Name]; ok || batch[t.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		batch[t.Name] = true
	}

	for _, t := range tools {
		t.Params = append([]Param(nil), t.Params...)
		r.tools[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return nil
}

// MustRegister is Register that panics on error. Use only at start-up.
func (r *Registry) MustRegister(tools ...Tool) {
	if err := r.Register(tools...); err != nil {
		panic(err)
	}
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	tools := r.List()
	out := make([]Descriptor, len(tools))
	for i, t := range tools {
		d := t.Descriptor
		d.Params = append([]Param(nil), t.Params...)
		out[i] = d
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Invoke runs one invocation. It never panics: unknown tools and handler
// panics are converted to failed results.
func (r *Registry) Invoke(ctx context.Context, inv Invocation) (res Result) {
	start := time.Now()
	logger := r.logger.With("tool", inv.Tool, "call_id", inv.ID)

	t, ok := r.Get(inv.Tool)
	if !ok {
		logger.Warn("unknown tool")
		res = Failed("Unknown tool: "+inv.Tool, fmt.Errorf("%w: %s", ErrUnknownTool, inv.Tool))
		r.metrics.observe(inv.Tool, res, time.Since(start))
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("tool panicked",
				"panic", p,
				"stack", string(debug.Stack()),
			)
			res = Failed(fmt.Sprintf("Error running %s: %v", inv.Tool, p), fmt.Errorf("tools: panic in %s: %v", inv.Tool, p))
		}

		elapsed := time.Since(start)
		r.metrics.observe(inv.Tool, res, elapsed)
		if res.Failed() {
			logger.Warn("tool failed", "error", res.Err, "duration", elapsed)
		} else {
			logger.Info("tool completed", "duration", elapsed)
		}
	}()

	logger.Debug("tool invoked", "args", inv.Args)
	return t.Handler(ctx, inv.Args.withDefaults(t.Descriptor))
}

// Dispatch runs an invocation and renders the result for the runtime.
func (r *Registry) Dispatch(ctx context.Context, inv Invocation) string {
	res := r.Invoke(ctx, inv)
	tagged := false
	if t, ok := r.Get(inv.Tool); ok {
		tagged = t.Tagged
	}
	return Render(res, tagged)
}
