package engine

import (
	"context"
	"io/fs"

	"github.com/pkg/errors"
	"github.com/wrenchdb/wrench/pkg/discovery"
	"github.com/wrenchdb/wrench/pkg/kind"
	"github.com/wrenchdb/wrench/pkg/planner"
	"github.com/wrenchdb/wrench/pkg/store"
)

// Session ties a connected Store to a discovered migration set and
// exposes one method per CLI command. It is the object pkg/cmd's command
// constructors actually call.
type Session struct {
	store       *store.DBStore
	migrations  map[int64]*kind.Descriptor
	discoveryFS fs.FS
	opts        discovery.Options
	engine      *Engine
}

// Open resolves the migration directory, discovers its descriptors, and
// connects the Store, ensuring the bookkeeping table exists.
func Open(ctx context.Context, storeCfg store.Config, opts discovery.Options) (*Session, error) {
	dirFS, err := discovery.Resolve(opts)
	if err != nil {
		return nil, err
	}

	migrations, err := discovery.Discover(dirFS, opts)
	if err != nil {
		return nil, err
	}
	if storeCfg.ModifySQLFn != nil {
		applyModifyFn(migrations, kind.ModifySQLFn(storeCfg.ModifySQLFn))
	}

	s, err := store.Connect(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	return &Session{
		store:       s,
		migrations:  migrations,
		discoveryFS: dirFS,
		opts:        opts,
		engine:      New(s),
	}, nil
}

// applyModifyFn threads the Store's modify-sql-fn hook into every
// discovered SQL migration, so it runs against migration statements too,
// not just the bookkeeping table DDL the Store issues on its own.
func applyModifyFn(migrations map[int64]*kind.Descriptor, fn kind.ModifySQLFn) {
	for _, desc := range migrations {
		if cfg, ok := desc.Kind.(kind.Configurable); ok {
			cfg.SetModifyFn(fn)
		}
	}
}

// Close disconnects the underlying Store.
func (s *Session) Close(ctx context.Context) error {
	return s.store.Disconnect(ctx)
}

func (s *Session) completed(ctx context.Context) ([]int64, error) {
	return s.store.CompletedIDs(ctx)
}

// Migrate runs every pending migration, ascending.
func (s *Session) Migrate(ctx context.Context) (Outcome, error) {
	completed, err := s.completed(ctx)
	if err != nil {
		return Failed, err
	}
	return s.engine.Run(ctx, planner.Migrate(s.migrations, completed))
}

// MigrateUntilJustBefore runs pending migrations with id < target.
func (s *Session) MigrateUntilJustBefore(ctx context.Context, target int64) (Outcome, error) {
	completed, err := s.completed(ctx)
	if err != nil {
		return Failed, err
	}
	return s.engine.Run(ctx, planner.MigrateUntilJustBefore(s.migrations, completed, target))
}

// Up runs the listed ids, in order, skipping ones already completed.
func (s *Session) Up(ctx context.Context, ids []int64) (Outcome, error) {
	completed, err := s.completed(ctx)
	if err != nil {
		return Failed, err
	}
	return s.engine.Run(ctx, planner.UpByID(s.migrations, completed, ids))
}

// Down runs the listed ids, in order, skipping ones not completed.
func (s *Session) Down(ctx context.Context, ids []int64) (Outcome, error) {
	completed, err := s.completed(ctx)
	if err != nil {
		return Failed, err
	}
	return s.engine.Run(ctx, planner.DownByID(s.migrations, completed, ids))
}

// Rollback reverts the single most-recently-applied migration.
func (s *Session) Rollback(ctx context.Context) (Outcome, error) {
	completed, err := s.completed(ctx)
	if err != nil {
		return Failed, err
	}
	return s.engine.Run(ctx, planner.Rollback(s.migrations, completed))
}

// RollbackUntilJustAfter reverts every completed migration with id > target.
func (s *Session) RollbackUntilJustAfter(ctx context.Context, target int64) (Outcome, error) {
	completed, err := s.completed(ctx)
	if err != nil {
		return Failed, err
	}
	return s.engine.Run(ctx, planner.RollbackUntilJustAfter(s.migrations, completed, target))
}

// Reset reverts every completed migration, then reapplies the full set.
func (s *Session) Reset(ctx context.Context) (Outcome, error) {
	completed, err := s.completed(ctx)
	if err != nil {
		return Failed, err
	}
	return s.engine.Run(ctx, planner.Reset(s.migrations, completed))
}

// Pending returns the human names of every pending migration, without
// executing anything.
func (s *Session) Pending(ctx context.Context) ([]string, error) {
	completed, err := s.completed(ctx)
	if err != nil {
		return nil, err
	}
	return planner.PendingNames(s.migrations, completed), nil
}

// Available returns the human names of every discovered migration.
func (s *Session) Available() []string {
	ids := planner.AllIDs(s.migrations)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, s.migrations[id].Name)
	}
	return names
}

// Applied returns the human names of every completed migration.
func (s *Session) Applied(ctx context.Context) ([]string, error) {
	completed, err := s.completed(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(completed))
	for _, id := range completed {
		if desc, ok := s.migrations[id]; ok {
			names = append(names, desc.Name)
		}
	}
	return names, nil
}

// Init runs the configured init script once, outside the bookkeeping
// protocol.
func (s *Session) Init(ctx context.Context, inTransaction bool) error {
	script, err := discovery.LoadInitScript(s.discoveryFS, s.opts)
	if err != nil {
		return errors.Wrap(err, "engine: failed to load init script")
	}
	return s.store.Init(ctx, script, inTransaction)
}
