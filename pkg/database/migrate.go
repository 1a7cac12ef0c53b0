package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationState is the schema version recorded in schema_migrations
type MigrationState struct {
	Version uint
	Dirty   bool
	// Latest is the newest embedded migration
	Latest uint
}

// Pending reports whether embedded migrations are ahead of the database
func (s MigrationState) Pending() bool {
	return s.Version < s.Latest
}

// migrationSource opens the embedded academic and teaching practice migrations
func migrationSource() (source.Driver, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return src, nil
}

// latestVersion walks the embedded source to its last version
func latestVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("no embedded migrations: %w", err)
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}

func newMigrator(db *sql.DB) (*migrate.Migrate, source.Driver, error) {
	src, err := migrationSource()
	if err != nil {
		return nil, nil, err
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init migrate: %w", err)
	}
	return m, src, nil
}

// readState maps an empty schema_migrations table to version 0
func readState(m *migrate.Migrate, src source.Driver) (MigrationState, error) {
	latest, err := latestVersion(src)
	if err != nil {
		return MigrationState{}, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationState{Latest: latest}, nil
	}
	if err != nil {
		return MigrationState{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	return MigrationState{Version: version, Dirty: dirty, Latest: latest}, nil
}

// RunMigrations applies every pending migration. A dirty database is
// refused so a half-applied migration is fixed by hand first.
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	m, src, err := newMigrator(db)
	if err != nil {
		return err
	}

	before, err := readState(m, src)
	if err != nil {
		return err
	}
	if before.Dirty {
		logger.Error("database migration is dirty", zap.Uint("version", before.Version))
		return fmt.Errorf("database is dirty at version %d", before.Version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	after, err := readState(m, src)
	if err != nil {
		return err
	}
	logger.Info("database migrated",
		zap.Uint("from", before.Version),
		zap.Uint("version", after.Version),
	)
	return nil
}

// MigrationStatus reads the applied version without changing anything
func MigrationStatus(db *sql.DB) (MigrationState, error) {
	m, src, err := newMigrator(db)
	if err != nil {
		return MigrationState{}, err
	}
	return readState(m, src)
}
