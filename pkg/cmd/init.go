package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/fx"

	"github.com/wrenchdb/wrench/pkg/config"
)

type initParams struct {
	fx.In

	Config *config.Config
}

// NewInitCommand runs the configured init script once, outside the
// bookkeeping protocol, honoring wrench.yaml's init_in_transaction unless
// --no-transaction overrides it.
func NewInitCommand(p initParams) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Run the init script",
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-transaction",
				Usage: "run the init script outside a transaction",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := openSession(ctx, p.Config)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close(ctx) }()

			inTransaction := p.Config.InitRunsInTransaction()
			if cmd.Bool("no-transaction") {
				inTransaction = false
			}

			if err := session.Init(ctx, inTransaction); err != nil {
				return err
			}
			fmt.Fprintln(cmd.Writer, "init: ok")
			return nil
		},
	}
}
