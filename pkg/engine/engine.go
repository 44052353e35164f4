// Package engine orchestrates a migration batch: connect, discover,
// resolve the planner's work list, dispatch each item through the Store,
// and disconnect. It is the only component that sequences the other four;
// it holds no bookkeeping state of its own.
package engine

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/wrenchdb/wrench/pkg/kind"
	"github.com/wrenchdb/wrench/pkg/planner"
	"github.com/wrenchdb/wrench/pkg/store"
)

// Outcome is the observable result of a batch of migrations. It resolves
// the historical nil/:ignore/:failure sentinel trio into a single typed
// return value paired with an error that is non-nil exactly on Failed.
type Outcome int

const (
	// Applied means the batch ran to completion with at least one
	// migration applied.
	Applied Outcome = iota

	// NoOp means the batch ran to completion with nothing to do — every
	// planned migration was already in its target state.
	NoOp

	// Ignored means another actor held the reservation; nothing in the
	// batch was attempted.
	Ignored

	// Failed means a migration in the batch errored, or the batch was
	// cancelled; see the accompanying error.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NoOp:
		return "no-op"
	case Ignored:
		return "ignored"
	default:
		return "failed"
	}
}

// Store is the subset of *store.DBStore the Engine drives, narrow enough
// that tests can supply a fake.
type Store interface {
	CompletedIDs(ctx context.Context) ([]int64, error)
	MigrateUp(ctx context.Context, desc *kind.Descriptor) (store.Result, error)
	MigrateDown(ctx context.Context, desc *kind.Descriptor) (store.Result, error)
}

// Engine drives a planner work list through a Store.
type Engine struct {
	store Store
}

// New constructs an Engine bound to store.
func New(store Store) *Engine {
	return &Engine{store: store}
}

// Run dispatches items in order, stopping at the first :ignore or error.
// Between migrations it checks ctx for cancellation and unwinds: no
// further items are dispatched, and the cancellation is surfaced as
// Failed with a wrapped context error. Reservation release and any
// in-flight transaction unwind happen inside the Store's per-migration
// state machine regardless of how Run exits.
func (e *Engine) Run(ctx context.Context, items []planner.Item) (Outcome, error) {
	if len(items) == 0 {
		return NoOp, nil
	}

	applied := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return Failed, errors.Wrap(err, "engine: cancelled before dispatching migration")
		}

		result, err := e.dispatch(ctx, item)
		if err != nil {
			return Failed, err
		}
		if result == store.Ignore {
			slog.Info("engine: reservation held by another actor, stopping batch")
			return Ignored, nil
		}
		applied++
	}

	if applied == 0 {
		return NoOp, nil
	}
	return Applied, nil
}

func (e *Engine) dispatch(ctx context.Context, item planner.Item) (store.Result, error) {
	desc := item.Descriptor
	slog.Info("engine: running migration", "id", desc.ID, "name", desc.Name, "direction", item.Direction.String())

	if item.Direction == planner.Up {
		return e.store.MigrateUp(ctx, desc)
	}
	return e.store.MigrateDown(ctx, desc)
}
