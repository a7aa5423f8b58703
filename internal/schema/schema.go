// Package schema holds table definitions as values and the catalog
// operations that create, inspect and drop them.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/maloquacious/questiondb/internal/store"
)

// Column is one column of a table definition.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
}

// Table is a fixed table layout.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the names of the columns in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// CreateSQL renders the CREATE TABLE statement. It has no IF NOT EXISTS
// clause, so running it against an existing table fails.
func (t Table) CreateSQL() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", t.Name)
	for i, c := range t.Columns {
		sb.WriteString("\t")
		sb.WriteString(c.Name)
		sb.WriteString(" ")
		sb.WriteString(c.Type)
		if c.PrimaryKey {
			sb.WriteString(" PRIMARY KEY")
		}
		if i < len(t.Columns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(")")
	return sb.String()
}

// Create runs the table's DDL on conn.
func Create(ctx context.Context, conn store.Conn, t Table) error {
	if _, err := conn.ExecContext(ctx, t.CreateSQL()); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			err = fmt.Errorf("%w: %w", store.ErrTableExists, err)
		}
		return &store.SchemaError{Op: "create", Table: t.Name, Err: err}
	}
	return nil
}

// Drop removes the table if it is present.
func Drop(ctx context.Context, conn store.Conn, t Table) error {
	if _, err := conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.Name); err != nil {
		return &store.SchemaError{Op: "drop", Table: t.Name, Err: err}
	}
	return nil
}

// Describe returns the CREATE statement the catalog holds for the named table.
func Describe(ctx context.Context, conn store.Conn, name string) (string, error) {
	var ddl string
	err := conn.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &store.StorageError{Op: "describe", Table: name, Err: store.ErrTableNotFound}
	}
	if err != nil {
		return "", &store.StorageError{Op: "describe", Table: name, Err: err}
	}
	return ddl, nil
}

// Exists reports whether the catalog has an entry for the named table.
func Exists(ctx context.Context, conn store.Conn, name string) (bool, error) {
	_, err := Describe(ctx, conn, name)
	if errors.Is(err, store.ErrTableNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
