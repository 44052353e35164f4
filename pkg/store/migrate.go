package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/wrenchdb/wrench/pkg/kind"
)

// direction selects which side of a migration kind runs.
type direction int

const (
	up direction = iota
	down
)

func (d direction) String() string {
	if d == up {
		return "up"
	}
	return "down"
}

func (d direction) reverse() direction {
	if d == up {
		return down
	}
	return up
}

func (d direction) run(ctx context.Context, k kind.Kind, conn kind.Conn) error {
	if d == up {
		return k.Up(ctx, conn)
	}
	return k.Down(ctx, conn)
}

// MigrateUp runs desc's up side effect and records it as completed. It
// returns Ignore, nil if another actor holds the reservation; otherwise it
// runs the full per-migration state machine and returns Success, nil once
// the bookkeeping row is committed.
func (s *DBStore) MigrateUp(ctx context.Context, desc *kind.Descriptor) (Result, error) {
	return s.migrate(ctx, desc, up)
}

// MigrateDown runs desc's down side effect and removes its bookkeeping
// row. Symmetric to MigrateUp.
func (s *DBStore) MigrateDown(ctx context.Context, desc *kind.Descriptor) (Result, error) {
	return s.migrate(ctx, desc, down)
}

func (s *DBStore) migrate(ctx context.Context, desc *kind.Descriptor, dir direction) (result Result, err error) {
	reserved, err := s.MarkReserved(ctx)
	if err != nil {
		return Ignore, err
	}
	if !reserved {
		return Ignore, nil
	}
	defer s.MarkUnreserved(ctx)

	complete, err := s.isComplete(ctx, desc.ID)
	if err != nil {
		return Success, err
	}
	// Migrating up an already-completed id, or down an id never applied,
	// is a no-op: the bookkeeping table already reflects the desired
	// state.
	if complete == (dir == up) {
		return Success, nil
	}

	if !desc.Transactional {
		if err := dir.run(ctx, desc.Kind, s.raw); err != nil {
			return Success, errors.Wrapf(err, "migration %d (%s) failed", desc.ID, dir)
		}
		return Success, s.recordResult(ctx, s.raw, desc, dir)
	}

	return s.migrateTransactional(ctx, desc, dir)
}

func (s *DBStore) migrateTransactional(ctx context.Context, desc *kind.Descriptor, dir direction) (Result, error) {
	tx, err := s.raw.BeginTx(ctx, nil)
	if err != nil {
		return Success, errors.Wrapf(err, "store: failed to begin transaction for migration %d", desc.ID)
	}

	if runErr := dir.run(ctx, desc.Kind, tx); runErr != nil {
		_ = tx.Rollback()
		s.backOut(ctx, desc, dir, runErr)
		return Success, errors.Wrapf(runErr, "migration %d (%s) failed", desc.ID, dir)
	}

	if err := s.recordResult(ctx, tx, desc, dir); err != nil {
		_ = tx.Rollback()
		return Success, err
	}

	return Success, errors.Wrapf(tx.Commit(), "store: failed to commit migration %d", desc.ID)
}

// backOut runs the reverse side effect on a best-effort basis, through the
// Store's own handle outside any transaction, after a transactional up/down has failed
// and been rolled back. Errors are logged, never propagated: the original
// failure always takes priority, and the transaction rollback is the
// primary guarantee, this is advisory only. It is skipped entirely when
// the triggering failure was a context cancellation, since the connection
// is likely unusable for further work.
func (s *DBStore) backOut(ctx context.Context, desc *kind.Descriptor, dir direction, cause error) {
	if ctx.Err() != nil {
		return
	}

	reverse := dir.reverse()
	if err := reverse.run(ctx, desc.Kind, s.raw); err != nil && !errors.Is(err, kind.ErrNoSideEffect) {
		slog.Warn("store: best-effort back-out failed",
			"migration", desc.ID, "direction", reverse.String(), "cause", cause, "error", err)
	}
}

// recordResult inserts or deletes the bookkeeping row for desc, through
// conn so it participates in the caller's transaction when one is open.
func (s *DBStore) recordResult(ctx context.Context, conn kind.Conn, desc *kind.Descriptor, dir direction) error {
	if dir == up {
		query := s.rebind(fmt.Sprintf(
			"INSERT INTO %s (id, applied, description) VALUES (?, ?, ?)", s.table,
		))
		_, err := conn.ExecContext(ctx, query, desc.ID, now(), desc.Name)
		return errors.Wrapf(err, "store: failed to record migration %d", desc.ID)
	}

	query := s.rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table))
	_, err := conn.ExecContext(ctx, query, desc.ID)
	return errors.Wrapf(err, "store: failed to remove bookkeeping row for migration %d", desc.ID)
}
