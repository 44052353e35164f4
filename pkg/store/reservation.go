package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/wrenchdb/wrench/pkg/consts"
)

// MarkReserved attempts to insert the reservation row (id = -1). It returns
// true if the insert succeeded and this caller now holds exclusive
// mutation rights over the migration set, false if another actor already
// holds the reservation. This is the only cross-process mutual-exclusion
// primitive in the engine: callers observing false must not busy-wait,
// they surface :ignore and return control to the caller.
func (s *DBStore) MarkReserved(ctx context.Context) (bool, error) {
	query := s.rebind(fmt.Sprintf(
		"INSERT INTO %s (id, applied, description) VALUES (?, ?, ?)", s.table,
	))

	if _, err := s.raw.ExecContext(ctx, query, consts.ReservationID, now(), "reservation"); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "store: failed to mark reserved")
	}
	return true, nil
}

// MarkUnreserved deletes the reservation row. Errors are logged, never
// raised: this is always called from a guaranteed-release scope around
// the migration body, and the original failure (if any) takes priority
// over a cleanup error. The delete runs even when ctx has been cancelled.
func (s *DBStore) MarkUnreserved(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	query := s.rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table))
	if _, err := s.raw.ExecContext(ctx, query, consts.ReservationID); err != nil {
		slog.Warn("store: failed to release reservation row", "error", err)
	}
}

// isComplete reports whether a row for id is already present in the
// bookkeeping table.
func (s *DBStore) isComplete(ctx context.Context, id int64) (bool, error) {
	query := s.rebind(fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", s.table))

	row := s.raw.QueryRowContext(ctx, query, id)
	var discard int
	switch err := row.Scan(&discard); {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, errors.Wrapf(err, "store: failed to check completion of migration %d", id)
	}
}
