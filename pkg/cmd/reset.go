package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/fx"

	"github.com/wrenchdb/wrench/pkg/config"
)

type resetParams struct {
	fx.In

	Config *config.Config
}

// NewResetCommand reverts every completed migration, then reapplies the
// full pending set.
func NewResetCommand(p resetParams) *cli.Command {
	return &cli.Command{
		Name:   "reset",
		Usage:  "Revert and reapply every migration",
		Before: requireConfig(p.Config),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := openSession(ctx, p.Config)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close(ctx) }()

			outcome, err := session.Reset(ctx)
			fmt.Println("reset:", outcome)
			return errForOutcome(outcome, err)
		},
	}
}
