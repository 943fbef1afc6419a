// Package testutil starts disposable PostgreSQL and Redis instances for
// integration tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/industria/api/internal/config"
	"github.com/industria/api/internal/database"
	"github.com/industria/api/internal/logger"
)

const (
	postgresImage = "postgres:16-alpine"
	testDBName    = "industria_test"
	testDBUser    = "test"
	testDBPass    = "test"
)

// StartPostgres runs a PostgreSQL container and returns its connection
// settings. The container is terminated when the test finishes.
// Tests are skipped in short mode.
func StartPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithDatabase(testDBName),
		tcpostgres.WithUsername(testDBUser),
		tcpostgres.WithPassword(testDBPass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Host:     host,
		Port:     port.Port(),
		Name:     testDBName,
		User:     testDBUser,
		Password: testDBPass,
		PoolMin:  1,
		PoolMax:  5,
	}
}

// NewMigratedDatabase starts PostgreSQL, applies all migrations and returns
// an open pool.
func NewMigratedDatabase(t *testing.T) *database.Database {
	t.Helper()

	cfg := StartPostgres(t)

	db, err := database.NewPostgresPool(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	migrator, err := database.NewMigrator(db, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	return db
}

// Truncate removes all rows from the domain tables.
func Truncate(t *testing.T, db *database.Database) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(), "TRUNCATE parcels, zones CASCADE")
	require.NoError(t, err)
}
