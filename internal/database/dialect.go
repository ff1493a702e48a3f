package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Dialect hides the few places where the supported engines disagree.
// Queries in this repository are written with '?' placeholders.
type Dialect struct {
	name       string
	driverName string
	bindType   int
}

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite:
		return Dialect{name: DriverSQLite, driverName: "sqlite3", bindType: sqlx.BindType("sqlite3")}, nil
	case DriverMySQL:
		return Dialect{name: DriverMySQL, driverName: "mysql", bindType: sqlx.BindType("mysql")}, nil
	case DriverPostgres:
		return Dialect{name: DriverPostgres, driverName: "pgx", bindType: sqlx.BindType("pgx")}, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported store driver %q", driver)
	}
}

func (d Dialect) Name() string       { return d.name }
func (d Dialect) DriverName() string { return d.driverName }

func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.bindType, query)
}

// SupportsReturning reports whether inserts hand back ids through RETURNING
// instead of LastInsertId.
func (d Dialect) SupportsReturning() bool {
	return d.name == DriverPostgres
}

// DeleteFirstMatch builds a statement deleting the oldest row of table whose
// column equals the single bound argument.
func (d Dialect) DeleteFirstMatch(table, column string) string {
	if d.name == DriverMySQL {
		return fmt.Sprintf("DELETE FROM %s WHERE %s = ? ORDER BY id LIMIT 1", table, column)
	}
	return fmt.Sprintf(
		"DELETE FROM %s WHERE id = (SELECT id FROM %s WHERE %s = ? ORDER BY id LIMIT 1)",
		table, table, column,
	)
}

// ForUpdate is appended to a single-row SELECT inside a transaction to lock that row.
// SQLite transactions begin immediate and already hold the write lock.
func (d Dialect) ForUpdate() string {
	if d.name == DriverSQLite {
		return ""
	}
	return " FOR UPDATE"
}
