package database

import (
	"context"
	"sync"
	"sync/atomic"
)

// InitGate runs a one-time initialization routine at most once per process,
// safely under concurrent first requests. Unlike sync.Once, a failed attempt
// leaves the gate open so the next request retries instead of pinning the
// process to a dead connection.
type InitGate struct {
	mu          sync.Mutex
	initialized atomic.Bool
	fn          func(ctx context.Context) error
}

func NewInitGate(fn func(ctx context.Context) error) *InitGate {
	return &InitGate{fn: fn}
}

// Ensure performs the initialization if it has not succeeded yet. Concurrent
// callers serialize on the lock and re-check the flag, so the routine runs
// exactly once per successful outcome.
func (g *InitGate) Ensure(ctx context.Context) error {
	if g.initialized.Load() {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized.Load() {
		return nil
	}
	if err := g.fn(ctx); err != nil {
		return err
	}
	g.initialized.Store(true)
	return nil
}

// Initialized reports whether a prior Ensure succeeded.
func (g *InitGate) Initialized() bool {
	return g.initialized.Load()
}
