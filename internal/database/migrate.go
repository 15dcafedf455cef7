package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrator applies the SQL files in migrations/ against the tenant
// database at startup. Migrations only ever add to the invite tables;
// nothing drops audit rows.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator builds a migrator reading .sql files from migrationsPath
// and applying them over the given Postgres DSN.
func NewMigrator(dsn, migrationsPath string) (*Migrator, error) {
	src := fmt.Sprintf("file://%s", migrationsPath)
	m, err := migrate.New(src, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. An already-current schema is not
// an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Down rolls every migration back. Used by tooling, never by the
// server itself.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rolling back migrations: %w", err)
	}
	return nil
}

// Version reports the current schema version and whether the database
// is in a dirty (half-applied) state.
func (m *Migrator) Version() (uint, bool, error) {
	return m.m.Version()
}

// Close releases the source and database handles held by the migrator.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
