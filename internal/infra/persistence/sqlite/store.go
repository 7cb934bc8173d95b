// Package sqlite provides a SQLite-backed document store. Documents are
// cached in memory and written through to a single table on every save.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	sqldocs "eicrcore/docs/schema/sql"
	"eicrcore/internal/infra/persistence/memory"
	"eicrcore/pkg/domain"
)

var _ domain.DocumentStore = (*Store)(nil)

// DefaultPath is used when NewStore receives an empty path.
const DefaultPath = "eicr.db"

// Store persists form documents to SQLite.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the database at path and hydrates the
// cache from it.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, stmt := range sqldocs.SplitStatements(sqldocs.SQLite) {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT form_id, field, payload FROM form_fields`)
	if err != nil {
		return fmt.Errorf("select form_fields: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snapshot := memory.Snapshot{}
	for rows.Next() {
		var formID, field string
		var payload []byte
		if err := rows.Scan(&formID, &field, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if snapshot[formID] == nil {
			snapshot[formID] = map[string]json.RawMessage{}
		}
		snapshot[formID][field] = json.RawMessage(payload)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate form_fields: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

// Save writes the document to SQLite, then updates the cache.
func (s *Store) Save(ctx context.Context, formID, field string, value json.RawMessage) error {
	if formID == "" || field == "" {
		return fmt.Errorf("save: form id and field are required")
	}
	if !json.Valid(value) {
		return fmt.Errorf("save %s/%s: payload is not valid JSON", formID, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO form_fields(form_id,field,payload,updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(form_id,field) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		formID, field, []byte(value), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", formID, field, err)
	}
	return s.Store.Save(ctx, formID, field, value)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
