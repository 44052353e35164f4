package kind_test

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/wrenchdb/wrench/pkg/kind"
)

func TestSplitStatements(t *testing.T) {
	t.Run("splits on separator and strips comments and blanks", func(t *testing.T) {
		sql := `-- create foo
CREATE TABLE foo (id int);

--;; statement 2
-- a trailing comment
ALTER TABLE foo ADD COLUMN name text;

--;;
`
		got := kind.SplitStatements(sql, "")
		require.Equal(t, []string{
			"CREATE TABLE foo (id int);",
			"ALTER TABLE foo ADD COLUMN name text;",
		}, got)
	})

	t.Run("single statement with no separator", func(t *testing.T) {
		got := kind.SplitStatements("SELECT 1;", "")
		require.Equal(t, []string{"SELECT 1;"}, got)
	})

	t.Run("fully blank input yields no statements", func(t *testing.T) {
		got := kind.SplitStatements("\n\n-- just a comment\n", "")
		require.Empty(t, got)
	})

	t.Run("custom separator", func(t *testing.T) {
		sql := "SELECT 1;\n@@split@@\nSELECT 2;\n"
		got := kind.SplitStatements(sql, "@@split@@")
		require.Equal(t, []string{"SELECT 1;", "SELECT 2;"}, got)
	})
}

func TestSql_UpDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	k := kind.NewSql("CREATE TABLE foo (id int);\n--;;\nCREATE TABLE bar (id int);", "DROP TABLE bar;\n--;;\nDROP TABLE foo;")

	mock.ExpectExec("CREATE TABLE foo").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE bar").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, k.Up(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec("DROP TABLE bar").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE foo").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, k.Down(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_MissingSide(t *testing.T) {
	k := kind.NewSql("CREATE TABLE foo (id int);", "")
	require.ErrorIs(t, k.Down(context.Background(), nil), kind.ErrNoSideEffect)
}

func TestSql_ModifyFn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	k := kind.NewSql("CREATE TABLE foo (id int);", "")
	k.ModifyFn = func(stmt string) ([]string, error) {
		return []string{stmt, "-- audit marker noop"}, nil
	}

	mock.ExpectExec("CREATE TABLE foo").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("-- audit marker noop").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, k.Up(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_ExecFailurePropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	k := kind.NewSql("CREATE TABLE foo (id int);", "")
	mock.ExpectExec("CREATE TABLE foo").WillReturnError(driver.ErrBadConn)

	err = k.Up(context.Background(), db)
	require.Error(t, err)
}
