// Package kind defines the polymorphic migration kind abstraction: the
// interface every migration implements to apply and revert its side
// effects, plus a small registry so new kinds can be added without
// modifying this package.
//
// Two kinds ship in this package: Sql (a parsed, multi-statement SQL
// script) and Code (a pair of Go callbacks). Both obey the same
// transactional discipline described in pkg/store: transactional kinds run
// inside a transaction the Store opens and commits/rolls back around the
// call; non-transactional kinds are handed a connection directly and are
// responsible for their own consistency.
package kind

import (
	"context"
	"database/sql"
)

type (
	// Conn is the minimal surface a migration kind needs from a database
	// connection to run its side effects. It is satisfied by *sql.DB,
	// *sql.Conn, and *sql.Tx, so a Kind never needs to know whether it is
	// running inside a transaction.
	Conn interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	}

	// Kind is a migration's polymorphic behavior: its up and down side
	// effects. It has no ID or Name methods; Descriptor wraps a Kind with
	// the bookkeeping metadata (id, name, transactional flag) the engine
	// and store need.
	Kind interface {
		// Up applies the migration's forward side effect using conn.
		Up(ctx context.Context, conn Conn) error

		// Down applies the migration's reverse side effect using conn.
		// Down may be called even when no down side effect was supplied;
		// implementations return ErrNoSideEffect in that case.
		Down(ctx context.Context, conn Conn) error
	}

	// Descriptor is the abstract, immutable record Discovery produces for
	// each migration id: identity, human name, and the polymorphic Kind
	// that knows how to run it.
	Descriptor struct {
		// ID is the migration identifier, ordinarily the leading digits of
		// the filename (a UTC yyyyMMddHHmmss timestamp). Never -1.
		ID int64

		// Name is the human description, the <name> segment of the
		// filename, kebab-case preserved.
		Name string

		// Tag identifies which registered kind constructed this
		// descriptor's Kind (e.g. "sql", "code").
		Tag string

		// Transactional controls whether the Store wraps Up/Down in a
		// database transaction. Discovery sets it to true unless the SQL
		// filename carries the .no-tx.sql suffix; the zero value is false.
		Transactional bool

		// Kind carries out the actual Up/Down side effects.
		Kind Kind
	}
)

// ErrNoSideEffect is returned by a Kind's Up or Down when that side of the
// migration has no payload defined.
var ErrNoSideEffect = errNoSideEffect{}

type errNoSideEffect struct{}

func (errNoSideEffect) Error() string { return "migration has no side effect for this direction" }
