// Wrench is a database schema migration engine. It discovers migration
// files on disk or in a resource archive, tracks which have been applied
// in a bookkeeping table, and drives a database forward or backward while
// guaranteeing that at most one actor in a cluster mutates schema at a
// time.
//
// Usage:
//
//	# Apply every pending migration
//	wrench migrate
//
//	# Revert the most recently applied migration
//	wrench rollback
//
// For more information, see the wrench.yaml configuration reference.
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/wrenchdb/wrench/pkg/cmd"
	"github.com/wrenchdb/wrench/pkg/config"
)

// Build-time variables set by GoReleaser during release builds.
var (
	version string = "local"
	commit  string = "local"
	date    string = time.Now().UTC().Format(time.RFC3339)
)

func main() {
	app := fx.New(
		config.Module,
		cmd.Module,
		fx.Provide(
			func() []string { return os.Args },
			func() context.Context { return context.Background() },
			func() *cmd.Version {
				return &cmd.Version{Version: version, Commit: commit, Timestamp: date}
			},
		),
		fx.NopLogger,
	)

	app.Run()
}
