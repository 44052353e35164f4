package store_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wrenchdb/wrench/pkg/dbtest"
	"github.com/wrenchdb/wrench/pkg/kind"
	"github.com/wrenchdb/wrench/pkg/store"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}
}

func TestStore_AgainstRealPostgres(t *testing.T) {
	skipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, err := dbtest.StartPostgres(ctx)
	require.NoError(t, err)
	defer func() { _ = backend.Close(ctx) }()

	s, err := store.Connect(ctx, store.Config{Driver: backend.Driver, DSN: backend.DSN})
	require.NoError(t, err)
	defer func() { _ = s.Disconnect(ctx) }()

	ids, err := s.CompletedIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)

	desc, err := kind.Build("sql",
		"CREATE TABLE widgets (id serial primary key)",
		"DROP TABLE widgets",
	)
	require.NoError(t, err)
	descriptor := &kind.Descriptor{ID: 1, Name: "create-widgets", Tag: "sql", Transactional: true, Kind: desc}

	result, err := s.MigrateUp(ctx, descriptor)
	require.NoError(t, err)
	require.Equal(t, store.Success, result)

	ids, err = s.CompletedIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)

	result, err = s.MigrateUp(ctx, descriptor)
	require.NoError(t, err)
	require.Equal(t, store.Success, result)

	result, err = s.MigrateDown(ctx, descriptor)
	require.NoError(t, err)
	require.Equal(t, store.Success, result)

	ids, err = s.CompletedIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestStore_ReservationBlocksConcurrentMutation(t *testing.T) {
	skipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, err := dbtest.StartPostgres(ctx)
	require.NoError(t, err)
	defer func() { _ = backend.Close(ctx) }()

	cfg := store.Config{Driver: backend.Driver, DSN: backend.DSN}
	a, err := store.Connect(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = a.Disconnect(ctx) }()

	b, err := store.Connect(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = b.Disconnect(ctx) }()

	reserved, err := a.MarkReserved(ctx)
	require.NoError(t, err)
	require.True(t, reserved)

	reserved, err = b.MarkReserved(ctx)
	require.NoError(t, err)
	require.False(t, reserved, "a second actor must not acquire the reservation while the first holds it")

	a.MarkUnreserved(ctx)

	reserved, err = b.MarkReserved(ctx)
	require.NoError(t, err)
	require.True(t, reserved)
	b.MarkUnreserved(ctx)
}
