// Package migration applies the SQL schema in migrations/ with golang-migrate.
// The schema is embedded in the binary by default; a directory can be used
// instead while authoring new migrations.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mestresdocafe/backend/migrations"
	"go.uber.org/zap"
)

// MigrationsTable is the bookkeeping table golang-migrate writes to
const MigrationsTable = "schema_migrations"

// Source tells the migrator where to read SQL files from
type Source struct {
	// Dir, when set, reads migrations from disk instead of the embedded set
	Dir string
	// FS overrides the embedded set, mainly for tests
	FS fs.FS
}

// EmbeddedSource reads the migrations compiled into the binary
func EmbeddedSource() Source {
	return Source{FS: migrations.FS}
}

// DirSource reads migrations from a directory
func DirSource(dir string) Source {
	return Source{Dir: dir}
}

// driver opens the embedded set. It returns nil when reading from disk.
func (s Source) driver() (source.Driver, error) {
	if s.Dir != "" {
		return nil, nil
	}
	fsys := s.FS
	if fsys == nil {
		fsys = migrations.FS
	}
	d, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return d, nil
}

func (s Source) url() string {
	return "file://" + s.Dir
}

// Migrator handles database migrations using golang-migrate
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New creates a Migrator on an open postgres connection
func New(db *sql.DB, from Source, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	src, err := from.driver()
	if err != nil {
		return nil, err
	}
	var m *migrate.Migrate
	if src == nil {
		m, err = migrate.NewWithDatabaseInstance(from.url(), "postgres", driver)
	} else {
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return newMigrator(m, logger), nil
}

// NewFromURL creates a Migrator from a database URL
func NewFromURL(databaseURL string, from Source, logger *zap.Logger) (*Migrator, error) {
	src, err := from.driver()
	if err != nil {
		return nil, err
	}
	var m *migrate.Migrate
	if src == nil {
		m, err = migrate.New(from.url(), databaseURL)
	} else {
		m, err = migrate.NewWithSourceInstance("iofs", src, databaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return newMigrator(m, logger), nil
}

func newMigrator(m *migrate.Migrate, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	m.Log = &migrateLogger{logger: logger.Named("migrate")}
	return &Migrator{migrate: m, logger: logger}
}

// apply runs step and logs the resulting version. ErrNoChange is not an
// error: the schema already is where step would take it.
func (m *Migrator) apply(what string, step func() error) error {
	if err := step(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Schema unchanged", zap.String("operation", what))
			return nil
		}
		return fmt.Errorf("%s failed: %w", what, err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Schema migrated",
		zap.String("operation", what),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up applies every pending fiscal schema migration
func (m *Migrator) Up() error {
	return m.apply("migrate up", m.migrate.Up)
}

// Down rolls back every migration
func (m *Migrator) Down() error {
	m.logger.Warn("Rolling back the fiscal schema")
	return m.apply("migrate down", m.migrate.Down)
}

// Steps applies n migrations, rolling back when n is negative
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return nil
	}
	return m.apply(fmt.Sprintf("migrate %+d steps", n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("migrate to %d", version), func() error { return m.migrate.Migrate(version) })
}

// Version returns the current schema version. An empty database reports 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running migrations, to recover a dirty state
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table in the database, including non-fiscal ones
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping database - all data will be lost")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

// migrateLogger adapts zap to migrate.Logger
type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
