// Package question defines the Question record and its backing table.
package question

import (
	"context"

	"github.com/maloquacious/questiondb/internal/repository"
	"github.com/maloquacious/questiondb/internal/schema"
	"github.com/maloquacious/questiondb/internal/store"
)

// Table is the layout of the questions table.
var Table = schema.Table{
	Name: "questions",
	Columns: []schema.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "content", Type: "TEXT"},
	},
}

// Question is one row of the questions table. ID is zero until the
// question has been inserted.
type Question struct {
	ID      int64  `json:"id,omitempty"`
	Content string `json:"content"`
}

// New returns an unsaved question.
func New(content string) *Question {
	return &Question{Content: content}
}

func (q *Question) Values() []any {
	return []any{q.Content}
}

func (q *Question) SetID(id int64) {
	q.ID = id
}

// Persisted reports whether the question has been assigned a key.
func (q *Question) Persisted() bool {
	return q.ID != 0
}

// Insert writes q to the questions table on conn.
func (q *Question) Insert(ctx context.Context, conn store.Conn) (*Question, error) {
	return NewGateway(conn).Insert(ctx, q)
}

// CreateTable creates the questions table on conn.
func CreateTable(ctx context.Context, conn store.Conn) error {
	return schema.Create(ctx, conn, Table)
}

// NewGateway returns a gateway that writes questions on conn.
func NewGateway(conn store.Conn) *repository.Gateway[*Question] {
	return repository.NewGateway[*Question](conn, Table)
}
