package database

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type Config struct {
	Driver       string
	SQLitePath   string
	BusyTimeout  time.Duration
	MySQL        MySQLConfig
	Postgres     PostgresConfig
	MaxOpenConns int
}

type MySQLConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Open connects to the configured store. The returned *sqlx.DB is sized so
// that it never holds more connections than the Pool built on top of it.
func Open(ctx context.Context, cfg *Config) (*sqlx.DB, Dialect, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	dsn, err := buildDSN(dialect, cfg)
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to open %s store: %w", dialect.Name(), err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, Dialect{}, fmt.Errorf("failed to connect to %s store: %w", dialect.Name(), err)
	}

	return db, dialect, nil
}

func buildDSN(d Dialect, cfg *Config) (string, error) {
	switch d.Name() {
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return "", fmt.Errorf("sqlite path is required")
		}
		busy := cfg.BusyTimeout
		if busy <= 0 {
			busy = 30 * time.Second
		}
		// _txlock=immediate takes the write lock at BEGIN so a transaction never
		// fails half way when upgrading from a read lock.
		return fmt.Sprintf(
			"%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_txlock=immediate",
			cfg.SQLitePath, busy.Milliseconds(),
		), nil
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.MySQL.User
		mc.Passwd = cfg.MySQL.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.MySQL.Host, cfg.MySQL.Port)
		mc.DBName = cfg.MySQL.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN(), nil
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User,
			cfg.Postgres.Password, cfg.Postgres.DBName, cfg.Postgres.SSLMode,
		), nil
	}
	return "", fmt.Errorf("no DSN builder for %s", d.Name())
}
