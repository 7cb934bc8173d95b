// Package postgres provides a Postgres-backed document store that mirrors the
// in-memory semantics, writing each saved document through to a JSONB table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	sqldocs "eicrcore/docs/schema/sql"
	"eicrcore/internal/infra/persistence/memory"
	"eicrcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.DocumentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/eicr?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists form documents to Postgres while serving reads from memory.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to
// defaultDSN), ensures the table exists, and hydrates the cache.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	for _, stmt := range sqldocs.SplitStatements(sqldocs.Postgres) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure form_fields table: %w", err)
		}
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT form_id, field, payload FROM form_fields`)
	if err != nil {
		return nil, fmt.Errorf("select form_fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{}
	for rows.Next() {
		var formID, field string
		var payload []byte
		if err := rows.Scan(&formID, &field, &payload); err != nil {
			return nil, fmt.Errorf("scan form_fields: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		if snapshot[formID] == nil {
			snapshot[formID] = map[string]json.RawMessage{}
		}
		snapshot[formID][field] = json.RawMessage(payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate form_fields: %w", err)
	}
	return snapshot, nil
}

// Save upserts the document in a transaction, then updates the cache.
func (s *Store) Save(ctx context.Context, formID, field string, value json.RawMessage) error {
	if formID == "" || field == "" {
		return fmt.Errorf("save: form id and field are required")
	}
	if !json.Valid(value) {
		return fmt.Errorf("save %s/%s: payload is not valid JSON", formID, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO form_fields(form_id,field,payload) VALUES($1,$2,$3) ON CONFLICT(form_id,field) DO UPDATE SET payload=EXCLUDED.payload, updated_at=now()`,
		formID, field, []byte(value)); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", formID, field, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return s.Store.Save(ctx, formID, field, value)
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
