// Package dbtest spins up real, disposable database backends for tests via
// testcontainers-go, the way pkg/docker does for the teacher's ClickHouse
// workflow, generalized to PostgreSQL and MySQL. The store integration
// tests start PostgreSQL only; StartMySQL has no caller in the test suite.
package dbtest

import (
	"context"

	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Backend is a running, disposable database container a test can open a
// store.Config against.
type Backend struct {
	Driver    string
	DSN       string
	terminate func(context.Context) error
}

// Close terminates the underlying container.
func (b *Backend) Close(ctx context.Context) error {
	if b.terminate == nil {
		return nil
	}
	return b.terminate(ctx)
}

// StartPostgres launches a disposable PostgreSQL container and returns its
// driver name ("pgx") and DSN.
func StartPostgres(ctx context.Context) (*Backend, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("wrench"),
		tcpostgres.WithUsername("wrench"),
		tcpostgres.WithPassword("wrench"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "dbtest: failed to start postgres container")
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, errors.Wrap(err, "dbtest: failed to resolve postgres dsn")
	}

	return &Backend{
		Driver:    "pgx",
		DSN:       dsn,
		terminate: container.Terminate,
	}, nil
}

// StartMySQL launches a disposable MySQL container and returns its driver
// name ("mysql") and DSN.
func StartMySQL(ctx context.Context) (*Backend, error) {
	container, err := tcmysql.Run(ctx,
		"mysql:8.0",
		tcmysql.WithDatabase("wrench"),
		tcmysql.WithUsername("wrench"),
		tcmysql.WithPassword("wrench"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "dbtest: failed to start mysql container")
	}

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		return nil, errors.Wrap(err, "dbtest: failed to resolve mysql dsn")
	}

	return &Backend{
		Driver:    "mysql",
		DSN:       dsn,
		terminate: container.Terminate,
	}, nil
}
