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

type rollbackParams struct {
	fx.In

	Config *config.Config
}

// NewRollbackCommand reverts the single most-recently-applied migration,
// or every completed migration with id greater than --until-just-after's
// target.
func NewRollbackCommand(p rollbackParams) *cli.Command {
	return &cli.Command{
		Name:   "rollback",
		Usage:  "Revert the most recently applied migration",
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "until-just-after",
				Usage: "revert everything applied after this migration id",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := openSession(ctx, p.Config)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close(ctx) }()

			if target := cmd.String("until-just-after"); target != "" {
				id, perr := strconv.ParseInt(target, 10, 64)
				if perr != nil {
					return errors.Wrapf(perr, "invalid migration id %q", target)
				}
				outcome, err := session.RollbackUntilJustAfter(ctx, id)
				fmt.Println("rollback:", outcome)
				return errForOutcome(outcome, err)
			}

			outcome, err := session.Rollback(ctx)
			fmt.Println("rollback:", outcome)
			return errForOutcome(outcome, err)
		},
	}
}
