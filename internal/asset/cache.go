// Package asset caches loaded task-graph templates by path. Runners
// hold non-owning references obtained through the cache and never
// release templates themselves; a template stays resident for the life
// of the process once loaded.
package asset

import (
	"fmt"
	"path/filepath"
	"sync"

	"automaton/internal/loader"
	"automaton/pkg/engine"
)

// Handle identifies a cached template. The zero value is invalid.
type Handle uint32

// InvalidHandle is returned by Load on failure.
const InvalidHandle Handle = 0

// Cache loads template documents once per path and hands out stable
// handles. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	byPath  map[string]Handle
	byID    map[Handle]*engine.Template
	paths   map[Handle]string
	nextID  Handle
	loadDoc func(path string) (*engine.Template, error)
}

// NewCache builds an empty cache backed by the loader.
func NewCache() *Cache {
	return &Cache{
		byPath:  make(map[string]Handle),
		byID:    make(map[Handle]*engine.Template),
		paths:   make(map[Handle]string),
		nextID:  1,
		loadDoc: loader.LoadFile,
	}
}

// Load returns the handle for a template document, loading and
// validating it on first use. Paths are cleaned so equivalent spellings
// share one entry.
func (c *Cache) Load(path string) (Handle, error) {
	key := filepath.Clean(path)

	c.mu.RLock()
	h, ok := c.byPath[key]
	c.mu.RUnlock()
	if ok {
		return h, nil
	}

	tmpl, err := c.loadDoc(key)
	if err != nil {
		return InvalidHandle, fmt.Errorf("asset: load %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.byPath[key]; ok {
		// Lost the race; the first load wins.
		return h, nil
	}
	h = c.nextID
	c.nextID++
	c.byPath[key] = h
	c.byID[h] = tmpl
	c.paths[h] = key
	return h, nil
}

// Get resolves a handle to its template.
func (c *Cache) Get(h Handle) (*engine.Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[h]
	return t, ok
}

// Path returns the cleaned source path of a handle, for diagnostics and
// save files.
func (c *Cache) Path(h Handle) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.paths[h]
	return p, ok
}

// Len reports how many templates are resident.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
