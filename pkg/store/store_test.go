package store_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/wrenchdb/wrench/pkg/store"
)

type sqlErr string

func (e sqlErr) Error() string { return string(e) }

var errTableMissing = sqlErr("no such table: schema_migrations")

// connect opens a sqlmock-backed Store, expecting the table-existence
// probe to miss and the bookkeeping table to be created, then runs any
// additional expectations before handing back the connected Store.
func connect(t *testing.T, expect func(sqlmock.Sqlmock)) (*store.DBStore, sqlmock.Sqlmock) {
	t.Helper()

	db, sm, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sm.ExpectBegin()
	sm.ExpectExec(regexp.QuoteMeta("SELECT 1 FROM schema_migrations WHERE 1 = 0")).
		WillReturnError(errTableMissing)
	sm.ExpectRollback()

	sm.ExpectBegin()
	sm.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	sm.ExpectCommit()

	if expect != nil {
		expect(sm)
	}

	s, err := store.Connect(context.Background(), store.Config{
		Driver: "sqlite3",
		DB:     db,
	})
	require.NoError(t, err)
	return s, sm
}

func TestConnect_CreatesTableWhenMissing(t *testing.T) {
	s, mock := connect(t, nil)
	require.NotNil(t, s)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnect_SkipsCreateWhenTableExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT 1 FROM schema_migrations WHERE 1 = 0")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	s, err := store.Connect(context.Background(), store.Config{Driver: "sqlite3", DB: db})
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletedIDs(t *testing.T) {
	s, mock := connect(t, func(m sqlmock.Sqlmock) {
		rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2))
		m.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schema_migrations WHERE id <> ?")).
			WithArgs(int64(-1)).
			WillReturnRows(rows)
	})

	ids, err := s.CompletedIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReserved_SucceedsThenConflicts(t *testing.T) {
	s, mock := connect(t, func(m sqlmock.Sqlmock) {
		m.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (id, applied, description) VALUES (?, ?, ?)")).
			WillReturnResult(sqlmock.NewResult(1, 1))
		m.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (id, applied, description) VALUES (?, ?, ?)")).
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint})
	})

	ok, err := s.MarkReserved(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.MarkReserved(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkUnreserved(t *testing.T) {
	s, mock := connect(t, func(m sqlmock.Sqlmock) {
		m.ExpectExec(regexp.QuoteMeta("DELETE FROM schema_migrations WHERE id = ?")).
			WithArgs(int64(-1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	})

	s.MarkUnreserved(context.Background())
	require.NoError(t, mock.ExpectationsWereMet())
}
