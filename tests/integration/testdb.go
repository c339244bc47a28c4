//go:build integration

// Package integration runs the fiscal engine against a real PostgreSQL
// started with testcontainers:
//
//	go test -tags integration ./tests/integration/...
//
// Set TEST_DB_DEBUG to log every SQL statement.
package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mestresdocafe/backend/internal/infrastructure/logger"
	"github.com/mestresdocafe/backend/internal/infrastructure/migration"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
)

const postgresImage = "postgres:16-alpine"

var (
	sharedMu        sync.Mutex
	sharedContainer *tcpostgres.PostgresContainer
	sharedDSN       string
)

// TestDB is a migrated fiscal database
type TestDB struct {
	*persistence.Database
	DSN string
	t   *testing.T
}

// NewTestDB connects to the shared container, migrating it on first use, and
// truncates every fiscal and store table so each test starts empty.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedMu.Lock()
	if sharedContainer == nil {
		container, dsn := startPostgres(t, "fiscal_shared")
		sharedContainer, sharedDSN = container, dsn
		migrate(t, connect(t, dsn))
	}
	dsn := sharedDSN
	sharedMu.Unlock()

	tdb := connect(t, dsn)
	tdb.truncate()
	return tdb
}

// NewIsolatedTestDB starts a dedicated, unmigrated container for tests that
// change the schema itself
func NewIsolatedTestDB(t *testing.T) *TestDB {
	t.Helper()

	container, dsn := startPostgres(t, "fiscal_isolated")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})
	return connect(t, dsn)
}

func startPostgres(t *testing.T, database string) (*tcpostgres.PostgresContainer, string) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase(database),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	return container, dsn
}

func connect(t *testing.T, dsn string) *TestDB {
	t.Helper()

	log := zap.NewNop()
	if os.Getenv("TEST_DB_DEBUG") != "" {
		log = zap.NewExample()
	}
	level := logger.MapGormLogLevel("error")
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.MapGormLogLevel("debug")
	}

	database, err := persistence.Open(gormpostgres.Open(dsn),
		persistence.WithLogger(logger.NewGormLogger(log, level, 200*time.Millisecond)),
	)
	require.NoError(t, err, "Failed to connect to database")
	t.Cleanup(func() { _ = database.Close() })

	return &TestDB{Database: database, DSN: dsn, t: t}
}

func migrate(t *testing.T, tdb *TestDB) {
	t.Helper()
	sqlDB, err := tdb.DB.DB()
	require.NoError(t, err)
	m, err := migration.New(sqlDB, migration.EmbeddedSource(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// truncate empties every table except the migration bookkeeping
func (tdb *TestDB) truncate() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename != ?
	`, migration.MigrationsTable).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to list tables")

	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error)
	}
}

// TableExists reports whether a public table exists
func (tdb *TestDB) TableExists(name string) bool {
	tdb.t.Helper()
	var exists bool
	err := tdb.DB.Raw(`
		SELECT EXISTS (SELECT 1 FROM pg_tables WHERE schemaname = 'public' AND tablename = ?)
	`, name).Scan(&exists).Error
	require.NoError(tdb.t, err)
	return exists
}

func terminateShared() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedContainer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = sharedContainer.Terminate(ctx)
	sharedContainer, sharedDSN = nil, ""
}
