// Package registry maps action names to their implementations and provides
// the built-in std::actions.
package registry

import (
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/ports"
)

// Registry manages the available actions.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]ports.Action
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]ports.Action),
	}
}

// Register adds an action to the registry.
// If an action with the same name exists, it is overwritten.
func (r *Registry) Register(name string, a ports.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = a
}

// RegisterFunc registers a function as an action.
func (r *Registry) RegisterFunc(name string, fn ports.ActionFunc) {
	r.Register(name, fn)
}

// Lookup implements ports.ActionLookup.
func (r *Registry) Lookup(name string) (ports.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ ports.ActionLookup = (*Registry)(nil)
