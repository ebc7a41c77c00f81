package client

import (
	"context"
	"sync"
)

// Registry tracks in-flight operations by logical key. Beginning a new
// operation under a key cancels whatever was running under it, so only the
// latest request per key can ever deliver a result.
type Registry struct {
	mu     sync.Mutex
	active map[string]*operation
}

type operation struct {
	cancel context.CancelFunc
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*operation)}
}

// Begin registers an operation under key, cancelling any previous holder.
// The release func must be called when the operation completes; it removes
// the entry unless a newer operation has already replaced it.
func (r *Registry) Begin(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	op := &operation{cancel: cancel}

	r.mu.Lock()
	if prev, ok := r.active[key]; ok {
		prev.cancel()
	}
	r.active[key] = op
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		if r.active[key] == op {
			delete(r.active, key)
		}
		r.mu.Unlock()
		cancel()
	}
	return ctx, release
}

// CancelAll cancels every in-flight operation and empties the registry.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, op := range r.active {
		op.cancel()
		delete(r.active, key)
	}
}

// Len reports the number of in-flight operations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
