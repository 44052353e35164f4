package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/fx"

	"github.com/wrenchdb/wrench/pkg/config"
)

type listParams struct {
	fx.In

	Config *config.Config
}

// NewListCommand reports migration names without executing anything:
// --pending (the default) lists undone migrations, --available lists every
// discovered migration, --applied lists completed ones.
func NewListCommand(p listParams) *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List migrations",
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "pending", Usage: "list migrations not yet applied (default)"},
			&cli.BoolFlag{Name: "available", Usage: "list every discovered migration"},
			&cli.BoolFlag{Name: "applied", Usage: "list migrations already applied"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := openSession(ctx, p.Config)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close(ctx) }()

			var names []string
			switch {
			case cmd.Bool("available"):
				names = session.Available()
			case cmd.Bool("applied"):
				names, err = session.Applied(ctx)
			default:
				names, err = session.Pending(ctx)
			}
			if err != nil {
				return err
			}

			if len(names) == 0 {
				fmt.Fprintln(cmd.Writer, "(none)")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.Writer, name)
			}
			return nil
		},
	}
}
