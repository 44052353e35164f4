// Package config loads wrench.yaml, the project configuration file that
// selects the target database and the filesystem conventions Discovery
// and the Store use.
package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/wrenchdb/wrench/pkg/consts"
	"github.com/wrenchdb/wrench/pkg/discovery"
	"gopkg.in/yaml.v3"
)

// Config is the project configuration for a wrench-managed database:
// which backend to connect to and the filesystem conventions Discovery
// and the Store use.
type Config struct {
	// Driver selects the database backend: "pgx", "postgres", "mysql",
	// "sqlite3", or "sqlserver".
	Driver string `yaml:"driver"`

	// DSN is the data source name used to open the connection.
	DSN string `yaml:"dsn"`

	// MigrationDir is the directory name Discovery searches. Default
	// "migrations".
	MigrationDir string `yaml:"migration_dir,omitempty"`

	// ParentMigrationDir is the filesystem parent tried after the
	// resource-loader search fails. Default "resources/".
	ParentMigrationDir string `yaml:"parent_migration_dir,omitempty"`

	// TableName is the bookkeeping table. Default "schema_migrations".
	TableName string `yaml:"migration_table_name,omitempty"`

	// InitScript is the init script filename. Default "init.sql".
	InitScript string `yaml:"init_script,omitempty"`

	// InitInTransaction runs the init script inside a transaction.
	// Default true; a pointer distinguishes "not set" from "set false".
	InitInTransaction *bool `yaml:"init_in_transaction,omitempty"`

	// ExcludeScripts lists filenames Discovery should skip.
	ExcludeScripts []string `yaml:"exclude_scripts,omitempty"`

	// CommandSeparator overrides the SQL statement separator line.
	// Default "--;;".
	CommandSeparator string `yaml:"command_separator,omitempty"`
}

// LoadConfig parses wrench.yaml-formatted configuration from r.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal wrench config")
	}
	return &cfg, nil
}

// LoadConfigFile loads the project configuration from the given path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// InitRunsInTransaction reports whether the init script should run inside
// a transaction, defaulting to true when unset.
func (c *Config) InitRunsInTransaction() bool {
	if c == nil || c.InitInTransaction == nil {
		return true
	}
	return *c.InitInTransaction
}

// DiscoveryOptions translates the configuration into discovery.Options.
func (c *Config) DiscoveryOptions() discovery.Options {
	if c == nil {
		return discovery.Options{}
	}
	return discovery.Options{
		MigrationDir: c.MigrationDir,
		ParentDir:    c.ParentMigrationDir,
		Exclude:      c.ExcludeScripts,
		InitScript:   c.InitScript,
		Separator:    c.CommandSeparator,
	}
}

// TableOrDefault returns the configured bookkeeping table name, or
// consts.DefaultTableName when unset.
func (c *Config) TableOrDefault() string {
	if c == nil || c.TableName == "" {
		return consts.DefaultTableName
	}
	return c.TableName
}
