package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/wrenchdb/wrench/pkg/kind"
)

// Init runs the given init script text once, by explicit request. It is
// not a migration: it is never recorded in the bookkeeping table and
// carries no reservation. inTransaction controls whether it runs inside a
// single transaction the Store opens and commits/rolls back, matching the
// init-in-transaction? configuration key.
func (s *DBStore) Init(ctx context.Context, script string, inTransaction bool) error {
	k := kind.NewSql(script, "")

	if !inTransaction {
		return errors.Wrap(k.Up(ctx, s.raw), "store: init script failed")
	}

	tx, err := s.raw.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store: failed to begin init script transaction")
	}

	if err := k.Up(ctx, tx); err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "store: init script failed")
	}

	return errors.Wrap(tx.Commit(), "store: failed to commit init script")
}
