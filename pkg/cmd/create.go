package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"

	"github.com/wrenchdb/wrench/pkg/config"
	"github.com/wrenchdb/wrench/pkg/consts"
)

type createParams struct {
	fx.In

	Config *config.Config
}

var createNameRe = regexp.MustCompile(`[^a-z0-9]+`)

func kebab(name string) string {
	slug := createNameRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

// NewCreateCommand writes an empty up/down file pair for a new migration,
// named "<timestamp>-<kebab-name>.(up|down).sql" per the migration filename
// grammar Discovery expects.
func NewCreateCommand(p createParams) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a new migration's up and down files",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return errors.New("create: a migration name is required")
			}

			dir := migrationDirFor(p.Config)
			if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
				return errors.Wrapf(err, "create: failed to create migration directory %s", dir)
			}

			stamp := time.Now().UTC().Format("20060102150405")
			base := fmt.Sprintf("%s-%s", stamp, kebab(name))

			for _, suffix := range []string{"up", "down"} {
				path := filepath.Join(dir, fmt.Sprintf("%s.%s.sql", base, suffix))
				if err := os.WriteFile(path, nil, consts.ModeFile); err != nil {
					return errors.Wrapf(err, "create: failed to write %s", path)
				}
				fmt.Fprintln(cmd.Writer, "created", path)
			}

			return nil
		},
	}
}

// migrationDirFor returns the on-disk migration directory a new migration
// pair should be written into. create bypasses Discovery's resource-loader
// search: it always writes to "<parent>/<dir>" (falling back to "<dir>")
// on the plain filesystem, since there is no sensible place to write a new
// file inside an embedded or archive-backed filesystem.
func migrationDirFor(cfg *config.Config) string {
	opts := cfg.DiscoveryOptions()
	parent := opts.ParentDir
	if parent == "" {
		parent = consts.DefaultParentMigrationDir
	}
	name := opts.MigrationDir
	if name == "" {
		name = consts.DefaultMigrationDir
	}

	onDisk := filepath.Join(parent, name)
	if info, err := os.Stat(onDisk); err == nil && info.IsDir() {
		return onDisk
	}
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		return name
	}
	return onDisk
}
