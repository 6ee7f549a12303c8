package memory

import (
	"context"
	"sync"
)

// Blackboard implements ports.Blackboard in memory.
// Safe for concurrent use.
type Blackboard struct {
	data map[string]any
	mu   sync.RWMutex
}

// NewBlackboard creates an empty in-memory blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{
		data: make(map[string]any),
	}
}

// NewBlackboardFrom creates a blackboard seeded with a copy of data.
func NewBlackboardFrom(data map[string]any) *Blackboard {
	bb := NewBlackboard()
	for k, v := range data {
		bb.data[k] = v
	}
	return bb
}

// Get returns the value stored under key.
func (b *Blackboard) Get(ctx context.Context, key string) (any, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok, nil
}

// Put stores v under key.
func (b *Blackboard) Put(ctx context.Context, key string, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = v
	return nil
}

// Delete removes key.
func (b *Blackboard) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

// Snapshot returns a copy of the blackboard so callers can't mutate it.
func (b *Blackboard) Snapshot(ctx context.Context) (map[string]any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]any, len(b.data))
	for k, v := range b.data {
		out[k] = v
	}
	return out, nil
}
