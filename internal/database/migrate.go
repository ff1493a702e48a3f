package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

// One directory of versioned goose migrations per dialect.
//
//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending migration for d and returns the resulting schema version.
// Safe to call on every start.
func Migrate(ctx context.Context, db *sqlx.DB, d Dialect) (int64, error) {
	p, err := newMigrator(db, d)
	if err != nil {
		return 0, err
	}

	if _, err := p.Up(ctx); err != nil {
		return 0, fmt.Errorf("failed to migrate %s store: %w", d.Name(), err)
	}
	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// The provider is not closed: that would close db, which belongs to the caller.
func newMigrator(db *sqlx.DB, d Dialect) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch d.Name() {
	case DriverSQLite:
		dialect = goose.DialectSQLite3
	case DriverMySQL:
		dialect = goose.DialectMySQL
	case DriverPostgres:
		dialect = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("no migrations for %q", d.Name())
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+d.Name())
	if err != nil {
		return nil, fmt.Errorf("no migrations for %s: %w", d.Name(), err)
	}
	p, err := goose.NewProvider(dialect, db.DB, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s migrations: %w", d.Name(), err)
	}
	return p, nil
}
