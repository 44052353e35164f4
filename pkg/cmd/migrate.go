package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"

	"github.com/wrenchdb/wrench/pkg/config"
)

type migrateParams struct {
	fx.In

	Config *config.Config
}

// NewMigrateCommand applies every pending migration, ascending, or every
// pending migration strictly before --until-just-before's id.
func NewMigrateCommand(p migrateParams) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending migrations",
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "until-just-before",
				Usage: "stop before applying the migration with this id",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := openSession(ctx, p.Config)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close(ctx) }()

			if target := cmd.String("until-just-before"); target != "" {
				id, perr := strconv.ParseInt(target, 10, 64)
				if perr != nil {
					return errors.Wrapf(perr, "invalid migration id %q", target)
				}
				outcome, err := session.MigrateUntilJustBefore(ctx, id)
				fmt.Println("migrate:", outcome)
				return errForOutcome(outcome, err)
			}

			outcome, err := session.Migrate(ctx)
			fmt.Println("migrate:", outcome)
			return errForOutcome(outcome, err)
		},
	}
}
