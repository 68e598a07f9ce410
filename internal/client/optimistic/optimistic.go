// Package optimistic implements the snapshot / apply / commit-or-revert
// protocol used for local mutations that are confirmed remotely afterwards.
package optimistic

import (
	"context"
	"sync"
)

// Change describes one optimistic mutation of some local state S.
type Change[S any] struct {
	// Snapshot captures the state that Restore puts back.
	Snapshot func() S
	// Apply makes the expected effect visible locally.
	Apply func()
	// Restore reverts to a snapshot.
	Restore func(S)
}

// Op is an applied change awaiting commit or revert.
type Op[S any] struct {
	mu      sync.Mutex
	snap    S
	restore func(S)
	settled bool
}

// Begin snapshots the state and applies the change.
func Begin[S any](c Change[S]) *Op[S] {
	op := &Op[S]{snap: c.Snapshot(), restore: c.Restore}
	c.Apply()
	return op
}

// Snapshot returns the pre-change state.
func (o *Op[S]) Snapshot() S {
	return o.snap
}

// Commit keeps the applied state. It reports false if the op was already settled.
func (o *Op[S]) Commit() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.settled {
		return false
	}
	o.settled = true
	return true
}

// Revert restores the snapshot. It reports false if the op was already settled.
func (o *Op[S]) Revert() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.settled {
		return false
	}
	o.settled = true
	o.restore(o.snap)
	return true
}

// Run applies c, calls remote, then commits on success or reverts on error.
// The remote error is returned unchanged.
func Run[S any](ctx context.Context, c Change[S], remote func(ctx context.Context) error) error {
	op := Begin(c)
	if err := remote(ctx); err != nil {
		op.Revert()
		return err
	}
	op.Commit()
	return nil
}
