// Package store persists runtime instance state between sessions: the
// node cursor, timers, last status, and the blackboard in its binary
// wire form. The sim layer talks only to the Store interface; the
// implementation is SQLite on disk or in-memory for tests.
package store

import (
	"errors"

	"automaton/pkg/engine"
)

// ErrNotFound is returned when no state is saved for an entity.
var ErrNotFound = errors.New("store: no saved state")

// SavedState is one entity's persisted execution state. Blackboard
// holds the engine's binary serialization; restoring it through an
// initialized blackboard gives the schema tolerance the wire format
// guarantees.
type SavedState struct {
	TemplatePath string
	Current      engine.NodeID
	Elapsed      float64
	LastStatus   engine.Status
	Blackboard   []byte
}

// Store is the persistence facade for runtime state.
type Store interface {
	SaveState(entity engine.EntityRef, state *SavedState) error
	LoadState(entity engine.EntityRef) (*SavedState, error)
	ListEntities() ([]engine.EntityRef, error)
	Close() error
}
