// Package databasetest builds throwaway sqlite-backed pools for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

type Option func(*database.PoolConfig)

func WithMaxConns(n int) Option {
	return func(c *database.PoolConfig) { c.MaxConns = n }
}

func WithAcquireTimeout(d time.Duration) Option {
	return func(c *database.PoolConfig) { c.AcquireTimeout = d }
}

// NewPool opens a migrated sqlite store under t.TempDir and returns a pool over it.
// Everything is closed on test cleanup.
func NewPool(t *testing.T, opts ...Option) (*database.Pool, *sqlx.DB) {
	t.Helper()

	cfg := database.PoolConfig{
		MaxConns:       4,
		Prewarm:        1,
		AcquireTimeout: 2 * time.Second,
		HealthTimeout:  time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()
	db, dialect, err := database.Open(ctx, &database.Config{
		Driver:       database.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "till.db"),
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: cfg.MaxConns,
	})
	require.NoError(t, err)
	_, err = database.Migrate(ctx, db, dialect)
	require.NoError(t, err)

	pool, err := database.NewPool(ctx, db, dialect, cfg, logger.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		db.Close()
	})
	return pool, db
}

// SeedProduct inserts a catalog row directly.
func SeedProduct(t *testing.T, db *sqlx.DB, p model.Product) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO products (code, name, price, stock, is_restricted_category) VALUES (?, ?, ?, ?, ?)`,
		p.Code, p.Name, p.Price, p.Stock, p.IsRestrictedCategory,
	)
	require.NoError(t, err)
}

// Stock reads a product's current stock by name.
func Stock(t *testing.T, db *sqlx.DB, name string) int {
	t.Helper()
	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM products WHERE name = ?`, name))
	return stock
}

// Count returns the number of rows in table.
func Count(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
