// Package cmd builds the wrench CLI's command tree on top of
// github.com/urfave/cli/v3, wired together with go.uber.org/fx the way
// the teacher's own pkg/cmd does.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"

	"github.com/wrenchdb/wrench/pkg/config"
	"github.com/wrenchdb/wrench/pkg/engine"
)

type (
	// Params are the dependencies the root command needs from the fx
	// graph: the command tree itself (assembled via the "commands"
	// value group), process args, and the lifecycle hooks that let a
	// CLI run inside an fx app.
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	// Version carries build-time version metadata into the --version
	// output.
	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run assembles the wrench CLI application and schedules it to execute
// as an fx start hook, translating its exit status into an fx shutdown
// code.
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := &cli.Command{
		Name:  "wrench",
		Usage: "A database schema migration engine",
		Description: `wrench discovers migration files, tracks which have been applied in a
bookkeeping table, and drives a database forward or backward while
guaranteeing that at most one actor in a cluster mutates schema at a time.`,
		Version:  p.Version.Version,
		Commands: p.Commands,
	}

	p.Lifecycle.Append(fx.StartHook(func() {
		if err := app.Run(p.Ctx, p.Args); err != nil {
			slog.Error("wrench: command failed", "error", err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
			return
		}
		_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
	}))
}

// requireConfig fails fast with a clear error for commands that need a
// connected database but found no wrench.yaml.
func requireConfig(cfg *config.Config) cli.BeforeFunc {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cfg == nil {
			return ctx, errors.New("wrench.yaml not found")
		}
		return ctx, nil
	}
}

// errForOutcome maps an engine.Outcome to the error the CLI surfaces: nil
// for Applied, NoOp, and Ignored (all exit 0 per the spec's exit-code
// contract), non-nil only for Failed.
func errForOutcome(outcome engine.Outcome, err error) error {
	if outcome != engine.Failed {
		return nil
	}
	return errors.Wrapf(err, "migration batch %s", outcome)
}
