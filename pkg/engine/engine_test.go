package engine_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/wrenchdb/wrench/pkg/engine"
	"github.com/wrenchdb/wrench/pkg/kind"
	"github.com/wrenchdb/wrench/pkg/planner"
	"github.com/wrenchdb/wrench/pkg/store"
)

type fakeStore struct {
	completed []int64
	upResult  func(id int64) (store.Result, error)
	downCalls []int64
	upCalls   []int64
}

func (f *fakeStore) CompletedIDs(context.Context) ([]int64, error) { return f.completed, nil }

func (f *fakeStore) MigrateUp(_ context.Context, desc *kind.Descriptor) (store.Result, error) {
	f.upCalls = append(f.upCalls, desc.ID)
	if f.upResult != nil {
		return f.upResult(desc.ID)
	}
	return store.Success, nil
}

func (f *fakeStore) MigrateDown(_ context.Context, desc *kind.Descriptor) (store.Result, error) {
	f.downCalls = append(f.downCalls, desc.ID)
	return store.Success, nil
}

func items(ids ...int64) []planner.Item {
	var out []planner.Item
	for _, id := range ids {
		out = append(out, planner.Item{Descriptor: &kind.Descriptor{ID: id, Name: "m"}, Direction: planner.Up})
	}
	return out
}

func TestRun_EmptyBatchIsNoOp(t *testing.T) {
	e := engine.New(&fakeStore{})
	outcome, err := e.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, engine.NoOp, outcome)
}

func TestRun_AppliesInOrder(t *testing.T) {
	fs := &fakeStore{}
	e := engine.New(fs)

	outcome, err := e.Run(context.Background(), items(1, 2, 3))
	require.NoError(t, err)
	require.Equal(t, engine.Applied, outcome)
	require.Equal(t, []int64{1, 2, 3}, fs.upCalls)
}

func TestRun_StopsOnIgnore(t *testing.T) {
	fs := &fakeStore{upResult: func(id int64) (store.Result, error) {
		if id == 2 {
			return store.Ignore, nil
		}
		return store.Success, nil
	}}
	e := engine.New(fs)

	outcome, err := e.Run(context.Background(), items(1, 2, 3))
	require.NoError(t, err)
	require.Equal(t, engine.Ignored, outcome)
	require.Equal(t, []int64{1, 2}, fs.upCalls)
}

func TestRun_StopsOnError(t *testing.T) {
	fs := &fakeStore{upResult: func(id int64) (store.Result, error) {
		if id == 2 {
			return store.Success, errors.New("boom")
		}
		return store.Success, nil
	}}
	e := engine.New(fs)

	outcome, err := e.Run(context.Background(), items(1, 2, 3))
	require.Error(t, err)
	require.Equal(t, engine.Failed, outcome)
	require.Equal(t, []int64{1, 2}, fs.upCalls)
}

func TestRun_CancellationBetweenMigrations(t *testing.T) {
	fs := &fakeStore{}
	e := engine.New(fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := e.Run(ctx, items(1, 2))
	require.Error(t, err)
	require.Equal(t, engine.Failed, outcome)
	require.Empty(t, fs.upCalls)
}
