package store

import (
	"errors"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// isUniqueViolation reports whether err is a unique/primary-key constraint
// violation, the error shape the reservation row's mutual exclusion
// protocol depends on. Every supported backend reports this differently,
// so each driver's own error type is checked in turn.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint
	}

	// go-mssqldb surfaces constraint violations as a plain error whose
	// message names the bookkeeping table's unique index; there is no
	// exported typed error to match against.
	return strings.Contains(err.Error(), "Violation of UNIQUE KEY constraint") ||
		strings.Contains(err.Error(), "Violation of PRIMARY KEY constraint")
}
