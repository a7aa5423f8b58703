// Package repository persists entities into tables described by schema.Table.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/maloquacious/questiondb/internal/schema"
	"github.com/maloquacious/questiondb/internal/store"
)

// Entity is a value that can be written as one row.
// Values returns the non-primary-key column values in table order.
// SetID receives the key the engine generated for the row.
type Entity interface {
	Values() []any
	SetID(id int64)
}

// Gateway inserts entities of type T into a single table.
// It holds no state beyond the connection and is safe for concurrent use
// whenever the connection is.
type Gateway[T Entity] struct {
	conn      store.Conn
	table     schema.Table
	columns   []string
	insertSQL string
}

// NewGateway returns a gateway for table over conn.
func NewGateway[T Entity](conn store.Conn, table schema.Table) *Gateway[T] {
	var cols []string
	for _, c := range table.Columns {
		if !c.PrimaryKey {
			cols = append(cols, c.Name)
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return &Gateway[T]{
		conn:      conn,
		table:     table,
		columns:   cols,
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table.Name, strings.Join(cols, ", "), placeholders),
	}
}

// Table returns the table definition the gateway writes to.
func (g *Gateway[T]) Table() schema.Table {
	return g.table
}

// CreateTable creates the gateway's table. It fails if the table exists.
func (g *Gateway[T]) CreateTable(ctx context.Context) error {
	return schema.Create(ctx, g.conn, g.table)
}

// Insert writes e as a new row and assigns the generated key to it.
// The values are captured before the statement runs. On success the same
// entity is returned; on failure the entity's key is left untouched.
func (g *Gateway[T]) Insert(ctx context.Context, e T) (T, error) {
	var zero T

	args := e.Values()
	if len(args) != len(g.columns) {
		return zero, &store.StorageError{
			Op:    "insert",
			Table: g.table.Name,
			Err:   fmt.Errorf("got %d values for %d columns", len(args), len(g.columns)),
		}
	}

	res, err := g.conn.ExecContext(ctx, g.insertSQL, args...)
	if err != nil {
		return zero, &store.StorageError{Op: "insert", Table: g.table.Name, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return zero, &store.StorageError{Op: "insert", Table: g.table.Name, Err: fmt.Errorf("last insert id: %w", err)}
	}

	e.SetID(id)
	return e, nil
}
