package core

import (
	"context"
	"fmt"
	"strings"

	"eicrcore/internal/infra/persistence/memory"
	"eicrcore/internal/infra/persistence/postgres"
	"eicrcore/internal/infra/persistence/sqlite"
	"eicrcore/pkg/domain"
)

// StorageDriver identifies a concrete document store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and configures a document store.
type StorageConfig struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// OpenDocumentStore builds the store named by cfg.Driver. Defaults to sqlite.
func OpenDocumentStore(ctx context.Context, cfg StorageConfig) (domain.DocumentStore, error) {
	driver := StorageDriver(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case StoragePostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// NewSQLiteStore opens a SQLite document store at path (empty for default).
func NewSQLiteStore(path string) (*sqlite.Store, error) {
	return sqlite.NewStore(path)
}

// NewPostgresStore opens a Postgres document store from dsn.
func NewPostgresStore(ctx context.Context, dsn string) (*postgres.Store, error) {
	return postgres.NewStore(ctx, dsn)
}
