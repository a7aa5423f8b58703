package store

import (
	"context"
	"database/sql"
)

// StoreState represents the initialization state of the question datastore.
type StoreState int

const (
	StateMissing         StoreState = iota // File doesn't exist
	StateUninitialized                     // File exists but no schema
	StateVersionMismatch                   // Schema exists but wrong version
	StateReady                             // Initialized, correct version, questions table present
)

func (s StoreState) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateUninitialized:
		return "uninitialized"
	case StateVersionMismatch:
		return "version-mismatch"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Conn is the storage connection that schema and record operations run on.
// *sql.DB, *sql.Tx and *sql.Conn all satisfy it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store defines the question datastore contract.
// Implementations must be safe for concurrent use.
type Store interface {
	// Open opens the datastore connection
	Open() error

	// Close closes the datastore connection
	Close() error

	// Conn returns the open connection, or nil before Open
	Conn() Conn

	// InitSchema creates schema_migrations and the questions table
	InitSchema(ctx context.Context, version string) error

	// CheckState returns the current state of the datastore
	CheckState(ctx context.Context) (StoreState, error)

	// GetSchemaVersion returns the current schema version from the database
	GetSchemaVersion(ctx context.Context) (string, error)
}
