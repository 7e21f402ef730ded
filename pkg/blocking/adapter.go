// Package blocking runs blocking native calls (keyboard, mouse, screen
// capture, OCR) on a bounded worker pool so the session's event loop is
// never stalled by them.
package blocking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 4

// Config configures an Adapter.
type Config struct {
	// Workers bounds the number of calls in flight.
	Workers int

	// Serialize runs input-device calls one at a time so concurrent
	// keyboard and mouse actions cannot interleave.
	Serialize bool

	Logger *slog.Logger
}

// Adapter bounds concurrent blocking calls.
//
// A call waits for a free worker while honouring its context. Once a
// worker picks it up the call runs to completion; cancelling the context
// after that point has no effect and the caller still waits for the
// result.
type Adapter struct {
	sem       *semaphore.Weighted
	workers   int
	serialize bool
	input     *semaphore.Weighted
	logger    *slog.Logger
}

// New creates an adapter.
func New(cfg Config) *Adapter {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		sem:       semaphore.NewWeighted(int64(cfg.Workers)),
		workers:   cfg.Workers,
		serialize: cfg.Serialize,
		input:     semaphore.NewWeighted(1),
		logger:    logger.With("component", "blocking"),
	}
}

// Workers returns the pool size.
func (a *Adapter) Workers() int {
	return a.workers
}

// Serialized reports whether input calls run one at a time.
func (a *Adapter) Serialized() bool {
	return a.serialize
}

// Run executes fn on a worker and waits for it.
func (a *Adapter) Run(ctx context.Context, name string, fn func() error) error {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("blocking: %s not dispatched: %w", name, err)
	}
	defer a.sem.Release(1)

	return a.call(name, fn)
}

// RunInput is Run for calls that drive an input device. In serialize mode
// those calls hold an exclusive lane for their whole duration. The lane is
// taken before a worker, so queued input calls never occupy the pool.
func (a *Adapter) RunInput(ctx context.Context, name string, fn func() error) error {
	if !a.serialize {
		return a.Run(ctx, name, fn)
	}
	if err := a.input.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("blocking: %s not dispatched: %w", name, err)
	}
	defer a.input.Release(1)
	return a.Run(ctx, name, fn)
}

func (a *Adapter) call(name string, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("blocking: %s panicked: %v", name, p)
		}
		a.logger.Debug("call finished",
			"call", name,
			"duration", time.Since(start),
			"error", err,
		)
	}()
	return fn()
}

// Do runs fn on a worker and returns its value.
func Do[T any](ctx context.Context, a *Adapter, name string, fn func() (T, error)) (T, error) {
	var v T
	err := a.Run(ctx, name, func() error {
		var err error
		v, err = fn()
		return err
	})
	return v, err
}
