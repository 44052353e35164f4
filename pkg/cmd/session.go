package cmd

import (
	"context"

	"github.com/wrenchdb/wrench/pkg/config"
	"github.com/wrenchdb/wrench/pkg/engine"
	"github.com/wrenchdb/wrench/pkg/store"
)

// openSession resolves the migration directory, connects the Store, and
// returns a ready-to-drive engine.Session for cfg.
func openSession(ctx context.Context, cfg *config.Config) (*engine.Session, error) {
	return engine.Open(ctx, store.Config{
		Driver:    cfg.Driver,
		DSN:       cfg.DSN,
		TableName: cfg.TableOrDefault(),
	}, cfg.DiscoveryOptions())
}
