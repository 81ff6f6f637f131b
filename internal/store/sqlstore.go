package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"automaton/pkg/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS saves (
	entity        INTEGER PRIMARY KEY,
	template_path TEXT NOT NULL,
	current_node  TEXT NOT NULL,
	elapsed       REAL NOT NULL,
	last_status   INTEGER NOT NULL,
	blackboard    BLOB
);
`

// SQLStore persists saved state in a SQLite database. One row per
// entity; saving again replaces the row.
type SQLStore struct {
	db *sql.DB
}

// Open creates or opens the save database at path, creating the parent
// directory if needed.
func Open(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) SaveState(entity engine.EntityRef, state *SavedState) error {
	_, err := s.db.Exec(`
		INSERT INTO saves (entity, template_path, current_node, elapsed, last_status, blackboard)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity) DO UPDATE SET
			template_path = excluded.template_path,
			current_node  = excluded.current_node,
			elapsed       = excluded.elapsed,
			last_status   = excluded.last_status,
			blackboard    = excluded.blackboard`,
		int64(entity), state.TemplatePath, string(state.Current),
		state.Elapsed, int(state.LastStatus), state.Blackboard)
	if err != nil {
		return fmt.Errorf("store: save entity %d: %w", entity, err)
	}
	return nil
}

func (s *SQLStore) LoadState(entity engine.EntityRef) (*SavedState, error) {
	row := s.db.QueryRow(`
		SELECT template_path, current_node, elapsed, last_status, blackboard
		FROM saves WHERE entity = ?`, int64(entity))

	var state SavedState
	var node string
	var status int
	err := row.Scan(&state.TemplatePath, &node, &state.Elapsed, &status, &state.Blackboard)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load entity %d: %w", entity, err)
	}
	state.Current = engine.NodeID(node)
	state.LastStatus = engine.Status(status)
	return &state, nil
}

func (s *SQLStore) ListEntities() ([]engine.EntityRef, error) {
	rows, err := s.db.Query(`SELECT entity FROM saves ORDER BY entity`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var entities []engine.EntityRef
	for rows.Next() {
		var e int64
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		entities = append(entities, engine.EntityRef(e))
	}
	return entities, rows.Err()
}

func (s *SQLStore) Close() error { return s.db.Close() }
