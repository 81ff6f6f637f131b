package store

import (
	"sort"
	"sync"

	"automaton/pkg/engine"
)

// MemStore keeps saved state in memory. Used by tests and as the
// default when no save database is configured.
type MemStore struct {
	mu     sync.RWMutex
	states map[engine.EntityRef]SavedState
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{states: make(map[engine.EntityRef]SavedState)}
}

func (m *MemStore) SaveState(entity engine.EntityRef, state *SavedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *state
	copied.Blackboard = append([]byte(nil), state.Blackboard...)
	m.states[entity] = copied
	return nil
}

func (m *MemStore) LoadState(entity engine.EntityRef) (*SavedState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[entity]
	if !ok {
		return nil, ErrNotFound
	}
	copied := s
	copied.Blackboard = append([]byte(nil), s.Blackboard...)
	return &copied, nil
}

func (m *MemStore) ListEntities() ([]engine.EntityRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entities := make([]engine.EntityRef, 0, len(m.states))
	for e := range m.states {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i] < entities[j] })
	return entities, nil
}

func (m *MemStore) Close() error { return nil }
