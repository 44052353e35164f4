// Package store encapsulates the database connection and bookkeeping
// protocol: connection management over database/sql, the bookkeeping
// table's lifecycle, the reservation row that gives a migrator cluster
// mutual exclusion, and the per-migration state machine that applies a
// single kind.Descriptor inside (or outside) a transaction.
//
// The Store is the sole place that touches the bookkeeping table and the
// sole cross-process synchronization primitive in this engine: there is no
// filesystem lock and no advisory lock, only the reservation row's
// unique-key enforcement.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/wrenchdb/wrench/pkg/consts"
)

type (
	// dbHandle is the subset of *sql.DB and *sql.Conn the Store needs.
	// Both types satisfy it, which lets the Store treat a caller-owned
	// pool and a caller-owned single connection identically everywhere
	// except Disconnect and ownership bookkeeping.
	dbHandle interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
		BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	}

	// Config selects exactly one of three connection specifications, in
	// priority order: an existing pool (DB), an existing open connection
	// (Conn, never closed by the Store), or a DSN the Store opens and
	// owns itself. Driver is required in every case since dialect
	// (placeholder style, DDL) cannot be introspected from a bare handle.
	Config struct {
		// Driver is one of "pgx", "postgres", "mysql", "sqlite3",
		// "sqlserver".
		Driver string

		// DSN is used to open a new connection when DB and Conn are both
		// nil.
		DSN string

		DB   *sql.DB
		Conn *sql.Conn

		// TableName defaults to consts.DefaultTableName.
		TableName string

		// ModifySQLFn is applied to the bookkeeping table's CREATE TABLE
		// statement. The Store's own bookkeeping queries (reservation
		// insert/delete, completion lookups, row inserts/deletes) do not
		// pass through it; engine.Open also installs it on every
		// discovered SQL migration.
		ModifySQLFn ModifySQLFn
	}

	// DBStore is the database-backed Store implementation.
	DBStore struct {
		raw       dbHandle
		closer    func() error
		table     string
		driver    string
		owns      bool
		modifySQL ModifySQLFn
	}

	// ModifySQLFn is applied to every statement before execution; it
	// returns the replacement statement(s) to run in its place.
	ModifySQLFn func(statement string) ([]string, error)

	// Result is the outcome of a single migrate-up/migrate-down call.
	Result int
)

const (
	// Success means the migration ran (or was already in the target
	// state) and the bookkeeping row reflects it.
	Success Result = iota

	// Ignore means another actor holds the reservation; nothing was done.
	Ignore
)

// Connect realizes one of Config's three connection specifications,
// pings the connection it opens itself from DSN (a caller-supplied DB or
// Conn is not pinged), and ensures the bookkeeping table exists. Auto-commit is never
// relied upon: every statement the Store issues runs either as a
// standalone autocommit-equivalent Exec (non-transactional path) or inside
// an explicit *sql.Tx the Store opens and commits/rolls back itself.
func Connect(ctx context.Context, cfg Config) (*DBStore, error) {
	if cfg.Driver == "" {
		return nil, errors.New("store: Driver is required")
	}

	table := cfg.TableName
	if table == "" {
		table = consts.DefaultTableName
	}

	s := &DBStore{
		table:     table,
		driver:    cfg.Driver,
		modifySQL: cfg.ModifySQLFn,
	}

	switch {
	case cfg.DB != nil:
		s.raw = cfg.DB
		s.owns = false
	case cfg.Conn != nil:
		s.raw = cfg.Conn
		s.owns = false
	default:
		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, errors.Wrapf(err, "store: failed to open %s connection", cfg.Driver)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "store: failed to connect with driver %s", cfg.Driver)
		}
		s.raw = db
		s.closer = db.Close
		s.owns = true
	}

	if err := s.ensureTable(ctx); err != nil {
		if s.owns {
			_ = s.closer()
		}
		return nil, err
	}

	return s, nil
}

// Disconnect closes the connection if the Store opened it. A connection or
// pool passed in by the caller is left open.
func (s *DBStore) Disconnect(context.Context) error {
	if !s.owns || s.closer == nil {
		return nil
	}
	return errors.Wrap(s.closer(), "store: failed to close connection")
}

// rebind translates a query written with "?" placeholders into the bind
// style the configured driver expects (e.g. "$1" for Postgres, "@p1" for
// SQL Server), the way every backend this Store targets differs.
func (s *DBStore) rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(s.driver), query)
}

// ensureTable creates the bookkeeping table if it doesn't exist. The
// existence probe and the CREATE TABLE each run in their own top-level
// transaction, since some backends poison a transaction once a query
// against an absent table fails inside it.
func (s *DBStore) ensureTable(ctx context.Context) error {
	exists, err := s.tableExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	tx, err := s.raw.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store: failed to begin bookkeeping table creation")
	}

	for _, stmt := range s.modify(s.createTableDDL()) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "store: failed to create bookkeeping table")
		}
	}

	return errors.Wrap(tx.Commit(), "store: failed to commit bookkeeping table creation")
}

// tableExists probes for the bookkeeping table inside its own transaction,
// rolling back regardless of outcome and treating a missing-table error as
// a non-fatal "false" rather than surfacing it.
func (s *DBStore) tableExists(ctx context.Context) (bool, error) {
	tx, err := s.raw.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "store: failed to begin table existence probe")
	}
	defer func() { _ = tx.Rollback() }()

	query := s.rebind(fmt.Sprintf("SELECT 1 FROM %s WHERE 1 = 0", s.table))
	if _, err := tx.ExecContext(ctx, query); err != nil {
		// Table-does-not-exist is the only error this probe expects to
		// fail on; a genuinely broken connection will surface again on
		// the very next call this Store makes.
		return false, nil
	}

	return true, nil
}

func (s *DBStore) createTableDDL() string {
	if s.driver == "sqlserver" {
		return fmt.Sprintf(
			"CREATE TABLE %s (id BIGINT NOT NULL UNIQUE, applied DATETIME2, description VARCHAR(1024))",
			s.table,
		)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id BIGINT NOT NULL UNIQUE, applied TIMESTAMP, description VARCHAR(1024))",
		s.table,
	)
}

// modify runs the Store's ModifySQLFn hook over statement, if configured,
// returning the single statement unmodified otherwise.
func (s *DBStore) modify(statement string) []string {
	if s.modifySQL == nil {
		return []string{statement}
	}
	stmts, err := s.modifySQL(statement)
	if err != nil {
		slog.Warn("store: modify-sql-fn failed, using original statement", "error", err)
		return []string{statement}
	}
	return stmts
}

// CompletedIDs returns every migration id present in the bookkeeping
// table, excluding the reservation row.
func (s *DBStore) CompletedIDs(ctx context.Context) ([]int64, error) {
	query := s.rebind(fmt.Sprintf("SELECT id FROM %s WHERE id <> ?", s.table))

	rows, err := s.raw.QueryContext(ctx, query, consts.ReservationID)
	if err != nil {
		return nil, errors.Wrap(err, "store: failed to load completed ids")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "store: failed to scan completed id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "store: failed to iterate completed ids")
}

func now() time.Time { return time.Now().UTC() }
