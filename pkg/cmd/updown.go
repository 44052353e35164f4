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

type upDownParams struct {
	fx.In

	Config *config.Config
}

func parseIDs(cmd *cli.Command) ([]int64, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return nil, errors.New("at least one migration id is required")
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid migration id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NewUpCommand applies the named migration ids, in the order given,
// skipping ones already completed.
func NewUpCommand(p upDownParams) *cli.Command {
	return &cli.Command{
		Name:      "up",
		Usage:     "Apply specific migrations by id",
		ArgsUsage: "<id>...",
		Before:    requireConfig(p.Config),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ids, err := parseIDs(cmd)
			if err != nil {
				return err
			}

			session, err := openSession(ctx, p.Config)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close(ctx) }()

			outcome, err := session.Up(ctx, ids)
			fmt.Println("up:", outcome)
			return errForOutcome(outcome, err)
		},
	}
}

// NewDownCommand reverts the named migration ids, in the order given,
// skipping ones not completed.
func NewDownCommand(p upDownParams) *cli.Command {
	return &cli.Command{
		Name:      "down",
		Usage:     "Revert specific migrations by id",
		ArgsUsage: "<id>...",
		Before:    requireConfig(p.Config),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ids, err := parseIDs(cmd)
			if err != nil {
				return err
			}

			session, err := openSession(ctx, p.Config)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close(ctx) }()

			outcome, err := session.Down(ctx, ids)
			fmt.Println("down:", outcome)
			return errForOutcome(outcome, err)
		},
	}
}
