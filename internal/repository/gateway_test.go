package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/maloquacious/questiondb/internal/schema"
	"github.com/maloquacious/questiondb/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

var notesTable = schema.Table{
	Name: "notes",
	Columns: []schema.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "title", Type: "TEXT"},
		{Name: "body", Type: "TEXT"},
	},
}

type note struct {
	id          int64
	title, body string
}

func (n *note) Values() []any  { return []any{n.title, n.body} }
func (n *note) SetID(id int64) { n.id = id }

// short returns one value too few.
type short struct{ id int64 }

func (s *short) Values() []any  { return []any{"only"} }
func (s *short) SetID(id int64) { s.id = id }

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewGatewayInsertSQL(t *testing.T) {
	g := NewGateway[*note](nil, notesTable)
	assert.Equal(t, "INSERT INTO notes (title, body) VALUES (?, ?)", g.insertSQL)
	assert.Equal(t, notesTable, g.Table())
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	g := NewGateway[*note](db, notesTable)
	require.NoError(t, g.CreateTable(ctx))

	n := &note{title: "groceries", body: "eggs"}
	got, err := g.Insert(ctx, n)
	require.NoError(t, err)
	assert.Same(t, n, got)
	assert.Equal(t, int64(1), n.id)

	var title, body string
	require.NoError(t, db.QueryRow("SELECT title, body FROM notes WHERE id = ?", n.id).Scan(&title, &body))
	assert.Equal(t, "groceries", title)
	assert.Equal(t, "eggs", body)

	second, err := g.Insert(ctx, &note{title: "groceries", body: "eggs"})
	require.NoError(t, err)
	assert.Greater(t, second.id, n.id, "identical content is not deduplicated")
}

func TestInsertCreateTableTwice(t *testing.T) {
	ctx := context.Background()
	g := NewGateway[*note](testDB(t), notesTable)
	require.NoError(t, g.CreateTable(ctx))
	assert.ErrorIs(t, g.CreateTable(ctx), store.ErrTableExists)
}

func TestInsertMissingTable(t *testing.T) {
	g := NewGateway[*note](testDB(t), notesTable)

	n := &note{title: "lost"}
	got, err := g.Insert(context.Background(), n)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Zero(t, n.id)

	var storageErr *store.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "insert", storageErr.Op)
	assert.Equal(t, "notes", storageErr.Table)
}

func TestInsertValueCountMismatch(t *testing.T) {
	g := NewGateway[*short](testDB(t), notesTable)

	s := &short{}
	_, err := g.Insert(context.Background(), s)
	var storageErr *store.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Zero(t, s.id)
}

type fakeConn struct {
	execErr error
	idErr   error
	args    []any
}

func (f *fakeConn) ExecContext(_ context.Context, _ string, args ...any) (sql.Result, error) {
	f.args = args
	if f.execErr != nil {
		return nil, f.execErr
	}
	return fakeResult{err: f.idErr}, nil
}

func (f *fakeConn) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

type fakeResult struct{ err error }

func (r fakeResult) LastInsertId() (int64, error) { return 7, r.err }
func (r fakeResult) RowsAffected() (int64, error) { return 1, nil }

func TestInsertErrorsAreNotSwallowed(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name string
		conn *fakeConn
	}{
		{name: "exec fails", conn: &fakeConn{execErr: cause}},
		{name: "generated key unavailable", conn: &fakeConn{idErr: cause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &note{title: "t", body: "b"}
			_, err := NewGateway[*note](tt.conn, notesTable).Insert(context.Background(), n)
			assert.ErrorIs(t, err, cause)
			assert.Zero(t, n.id)
		})
	}
}

func TestInsertCapturesValuesBeforeExec(t *testing.T) {
	conn := &fakeConn{}
	n := &note{title: "before", body: "b"}

	_, err := NewGateway[*note](conn, notesTable).Insert(context.Background(), n)
	require.NoError(t, err)

	n.title = "after"
	assert.Equal(t, []any{"before", "b"}, conn.args)
	assert.Equal(t, int64(7), n.id)
}

func TestConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	g := NewGateway[*note](db, notesTable)
	require.NoError(t, g.CreateTable(ctx))

	const n = 20
	var (
		mu  sync.Mutex
		ids = make(map[int64]bool)
	)
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			got, err := g.Insert(ctx, &note{title: "same", body: "same"})
			if err != nil {
				return err
			}
			mu.Lock()
			ids[got.id] = true
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	assert.Len(t, ids, n)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&count))
	assert.Equal(t, n, count)
}
