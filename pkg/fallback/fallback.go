// Package fallback resolves a value from a primary provider and, when the
// primary is unavailable, from a secondary provider exactly once.
//
// There is no retry loop, backoff or circuit breaker: each Resolve call
// makes at most one attempt per tier.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrEmpty is recorded when a provider answers with an empty payload.
	ErrEmpty = errors.New("fallback: empty result")

	// ErrNotConfigured is recorded for a provider without a fetch function.
	ErrNotConfigured = errors.New("fallback: provider not configured")
)

// Tier identifies which provider served a value.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierNone      Tier = "none"
)

// Provider is one tier of a resolver.
type Provider[T any] struct {
	Name string

	// Timeout bounds Fetch. Zero means only the caller's context applies.
	Timeout time.Duration

	// Fetch produces the value. A nil Fetch counts as unavailable.
	Fetch func(ctx context.Context) (T, error)
}

// Observer receives the serving tier of every resolution.
type Observer interface {
	ObserveFallback(resolver, tier string)
}

// Resolver carries the logging and metrics shared by Resolve calls.
type Resolver struct {
	name     string
	logger   *slog.Logger
	observer Observer
}

// New creates a resolver. A nil logger uses slog.Default; a nil observer
// disables metrics.
func New(name string, logger *slog.Logger, observer Observer) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		name:     name,
		logger:   logger.With("component", "fallback", "resolver", name),
		observer: observer,
	}
}

// Error reports that both tiers failed.
type Error struct {
	Primary   error
	Secondary error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fallback: both providers failed: primary: %v; secondary: %v", e.Primary, e.Secondary)
}

// Unwrap returns both tier errors.
func (e *Error) Unwrap() []error {
	return []error{e.Primary, e.Secondary}
}

// Resolve fetches from primary, then from secondary when primary errors,
// times out, panics, or returns a value for which empty reports true.
// empty may be nil.
func Resolve[T any](ctx context.Context, r *Resolver, primary, secondary Provider[T], empty func(T) bool) (T, Tier, error) {
	if r == nil {
		r = New("default", nil, nil)
	}

	v, perr := fetch(ctx, primary, empty)
	if perr == nil {
		r.observe(TierPrimary)
		return v, TierPrimary, nil
	}

	r.logger.Warn("provider failed, trying fallback",
		"provider", primary.Name,
		"fallback", secondary.Name,
		"error", perr,
	)

	v, serr := fetch(ctx, secondary, empty)
	if serr == nil {
		r.logger.Info("fallback provider succeeded", "provider", secondary.Name)
		r.observe(TierSecondary)
		return v, TierSecondary, nil
	}

	r.logger.Error("all providers failed",
		"primary", primary.Name,
		"secondary", secondary.Name,
		"error", serr,
	)
	r.observe(TierNone)
	var zero T
	return zero, TierNone, &Error{Primary: perr, Secondary: serr}
}

// Text resolves a string and never fails: when both tiers fail it returns
// unavailable. Blank strings count as empty.
func Text(ctx context.Context, r *Resolver, primary, secondary Provider[string], unavailable string) string {
	v, _, err := Resolve(ctx, r, primary, secondary, Blank)
	if err != nil {
		return unavailable
	}
	return v
}

// Blank reports whether s is empty after trimming whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func fetch[T any](ctx context.Context, p Provider[T], empty func(T) bool) (v T, err error) {
	if p.Fetch == nil {
		return v, fmt.Errorf("%w: %s", ErrNotConfigured, p.Name)
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			v, err = zero, fmt.Errorf("fallback: %s panicked: %v", p.Name, rec)
		}
	}()

	v, err = p.Fetch(ctx)
	if err != nil {
		return v, fmt.Errorf("%s: %w", p.Name, err)
	}
	if ctx.Err() != nil {
		return v, fmt.Errorf("%s: %w", p.Name, ctx.Err())
	}
	if empty != nil && empty(v) {
		return v, fmt.Errorf("%s: %w", p.Name, ErrEmpty)
	}
	return v, nil
}

func (r *Resolver) observe(t Tier) {
	if r.observer != nil {
		r.observer.ObserveFallback(r.name, string(t))
	}
}
