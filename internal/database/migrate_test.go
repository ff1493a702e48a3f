package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_VersionedAndRepeatable(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := Open(ctx, &Config{
		Driver:      DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "migrate.db"),
		BusyTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, err := Migrate(ctx, db, dialect)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	version, err = Migrate(ctx, db, dialect)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	var applied int
	require.NoError(t, db.Get(&applied, `SELECT COUNT(*) FROM goose_db_version WHERE version_id = 1`))
	assert.Equal(t, 1, applied)

	for _, table := range []string{"products", "tills", "sales", "sale_line_items", "shared_cart_mailbox", "till_expenses"} {
		var n int
		require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table), table)
		assert.Equal(t, 1, n, table)
	}
}

func TestMigrate_EveryDialectHasMigrations(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverMySQL, DriverPostgres} {
		entries, err := migrationsFS.ReadDir("migrations/" + driver)
		require.NoError(t, err, driver)
		assert.NotEmpty(t, entries, driver)
	}
}
