package engine

import (
	"sort"
	"sync"
)

// Registry maps string task identities to factories. It is an explicit
// instance handed through the system rather than package-global state,
// so registration order is the caller's startup wiring, not link order.
// Safe for concurrent use; in practice all registration happens before
// the first tick.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]TaskFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]TaskFactory)}
}

// Register installs a factory under id. A later registration under the
// same id replaces the earlier one.
func (r *Registry) Register(id string, factory TaskFactory) {
	if id == "" || factory == nil {
		return
	}
	r.mu.Lock()
	r.factories[id] = factory
	r.mu.Unlock()
}

// Create returns a freshly constructed task instance, or nil when the
// identity is unknown.
func (r *Registry) Create(id string) Task {
	r.mu.RLock()
	factory := r.factories[id]
	r.mu.RUnlock()
	if factory == nil {
		return nil
	}
	return factory()
}

// IsRegistered reports whether id has a factory.
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	_, ok := r.factories[id]
	r.mu.RUnlock()
	return ok
}

// TaskIDs returns every registered identity in sorted order.
func (r *Registry) TaskIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
