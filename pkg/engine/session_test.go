package engine_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/wrenchdb/wrench/pkg/discovery"
	"github.com/wrenchdb/wrench/pkg/engine"
	"github.com/wrenchdb/wrench/pkg/store"
)

// TestOpen_ModifySQLFnFiresOnMigrationStatements proves the Store's
// modify-sql-fn hook, once wired through Open, runs against an actual
// migration statement, not only the bookkeeping table's CREATE TABLE.
func TestOpen_ModifySQLFnFiresOnMigrationStatements(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/20200101000000-create-foo.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE foo (id int);")},
		"migrations/20200101000000-create-foo.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE foo;")},
	}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT 1 FROM schema_migrations WHERE 1 = 0")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schema_migrations WHERE id <> ?")).
		WithArgs(int64(-1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (id, applied, description) VALUES (?, ?, ?)")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM schema_migrations WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE foo (id int);")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (id, applied, description) VALUES (?, ?, ?)")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schema_migrations WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var seen []string
	modifySQLFn := func(statement string) ([]string, error) {
		seen = append(seen, statement)
		return []string{statement}, nil
	}

	session, err := engine.Open(context.Background(), store.Config{
		Driver:      "sqlite3",
		DB:          db,
		ModifySQLFn: modifySQLFn,
	}, discovery.Options{Primary: fsys})
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close(context.Background()) })

	outcome, err := session.Migrate(context.Background())
	require.NoError(t, err)
	require.Equal(t, engine.Applied, outcome)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Contains(t, seen, "CREATE TABLE foo (id int);",
		"modify-sql-fn must also run against migration statements, not just the bookkeeping DDL")
}
