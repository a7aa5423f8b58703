package store

import (
	"errors"
	"fmt"
)

// ErrTableExists is wrapped by a SchemaError when the engine rejects a
// CREATE TABLE because the name is already in use.
var ErrTableExists = errors.New("table already exists")

// ErrTableNotFound is returned when the catalog has no entry for a table.
var ErrTableNotFound = errors.New("table not found")

// SchemaError reports a failed DDL statement.
type SchemaError struct {
	Op    string
	Table string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// StorageError reports a failed read or write against a table.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
