package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Store     StoreConfig
	Pool      PoolConfig
	Terminal  TerminalConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type StoreConfig struct {
	Driver      string
	SQLitePath  string
	BusyTimeout time.Duration
	MySQL       database.MySQLConfig
	Postgres    database.PostgresConfig
}

type PoolConfig struct {
	MaxConnections int
	Prewarm        int
	AcquireTimeout time.Duration
	HealthTimeout  time.Duration
}

type TerminalConfig struct {
	ID                         string
	CartMode                   string
	SeparateRestrictedCategory bool
	BoundedStockMode           bool
	MailboxPollInterval        time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("GRPC_PORT", ":8083")

	v.SetDefault("LOGGER_LEVEL", "debug")
	v.SetDefault("LOGGER_ENCODING", "console")
	v.SetDefault("LOGGER_DISABLE_CALLER", false)
	v.SetDefault("LOGGER_DISABLE_STACKTRACE", true)

	v.SetDefault("STORE_DRIVER", database.DriverSQLite)
	v.SetDefault("SQLITE_PATH", "omnipos_till.db")
	v.SetDefault("STORE_BUSY_TIMEOUT_MS", 30000)
	v.SetDefault("MYSQL_HOST", "localhost")
	v.SetDefault("MYSQL_PORT", "3306")
	v.SetDefault("MYSQL_USER", "omnipos")
	v.SetDefault("MYSQL_PASSWORD", "omnipos")
	v.SetDefault("MYSQL_DB", "omnipos_till")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5433")
	v.SetDefault("POSTGRES_USER", "omnipos")
	v.SetDefault("POSTGRES_PASSWORD", "omnipos")
	v.SetDefault("POSTGRES_DB", "omnipos_till")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("POOL_MAX_CONNECTIONS", 15)
	v.SetDefault("POOL_PREWARM", 5)
	v.SetDefault("POOL_ACQUIRE_TIMEOUT_MS", 5000)
	v.SetDefault("POOL_HEALTH_TIMEOUT_MS", 1000)

	v.SetDefault("TERMINAL_ID", "")
	v.SetDefault("CART_MODE", string(model.CartLocal))
	v.SetDefault("SEPARATE_RESTRICTED_CATEGORY", true)
	v.SetDefault("BOUNDED_STOCK_MODE", true)
	v.SetDefault("MAILBOX_POLL_INTERVAL_MS", 2000)

	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
}

// LoadEnv reads the process environment. Callers load .env files beforehand.
func LoadEnv() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	terminalID := v.GetString("TERMINAL_ID")
	if terminalID == "" {
		terminalID = uuid.NewString()
	}

	return &Config{
		Server: ServerConfig{
			AppEnv:   v.GetString("APP_ENV"),
			GRPCPort: v.GetString("GRPC_PORT"),
		},
		Logger: LoggerConfig{
			Level:             v.GetString("LOGGER_LEVEL"),
			Encoding:          v.GetString("LOGGER_ENCODING"),
			DisableCaller:     v.GetBool("LOGGER_DISABLE_CALLER"),
			DisableStacktrace: v.GetBool("LOGGER_DISABLE_STACKTRACE"),
		},
		Store: StoreConfig{
			Driver:      v.GetString("STORE_DRIVER"),
			SQLitePath:  v.GetString("SQLITE_PATH"),
			BusyTimeout: millis(v, "STORE_BUSY_TIMEOUT_MS"),
			MySQL: database.MySQLConfig{
				Host:     v.GetString("MYSQL_HOST"),
				Port:     v.GetString("MYSQL_PORT"),
				User:     v.GetString("MYSQL_USER"),
				Password: v.GetString("MYSQL_PASSWORD"),
				DBName:   v.GetString("MYSQL_DB"),
			},
			Postgres: database.PostgresConfig{
				Host:     v.GetString("POSTGRES_HOST"),
				Port:     v.GetString("POSTGRES_PORT"),
				User:     v.GetString("POSTGRES_USER"),
				Password: v.GetString("POSTGRES_PASSWORD"),
				DBName:   v.GetString("POSTGRES_DB"),
				SSLMode:  v.GetString("POSTGRES_SSLMODE"),
			},
		},
		Pool: PoolConfig{
			MaxConnections: v.GetInt("POOL_MAX_CONNECTIONS"),
			Prewarm:        v.GetInt("POOL_PREWARM"),
			AcquireTimeout: millis(v, "POOL_ACQUIRE_TIMEOUT_MS"),
			HealthTimeout:  millis(v, "POOL_HEALTH_TIMEOUT_MS"),
		},
		Terminal: TerminalConfig{
			ID:                         terminalID,
			CartMode:                   v.GetString("CART_MODE"),
			SeparateRestrictedCategory: v.GetBool("SEPARATE_RESTRICTED_CATEGORY"),
			BoundedStockMode:           v.GetBool("BOUNDED_STOCK_MODE"),
			MailboxPollInterval:        millis(v, "MAILBOX_POLL_INTERVAL_MS"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}

func (c *Config) Validate() error {
	if _, err := database.DialectFor(c.Store.Driver); err != nil {
		return fmt.Errorf("STORE_DRIVER: %w", err)
	}
	if _, err := model.ParseCartMode(c.Terminal.CartMode); err != nil {
		return fmt.Errorf("CART_MODE: %w", err)
	}
	if c.Pool.MaxConnections <= 0 {
		return fmt.Errorf("POOL_MAX_CONNECTIONS must be positive, got %d", c.Pool.MaxConnections)
	}
	if c.Pool.Prewarm < 0 || c.Pool.Prewarm > c.Pool.MaxConnections {
		return fmt.Errorf("POOL_PREWARM must be between 0 and %d, got %d", c.Pool.MaxConnections, c.Pool.Prewarm)
	}
	if c.Terminal.MailboxPollInterval <= 0 {
		return fmt.Errorf("MAILBOX_POLL_INTERVAL_MS must be positive")
	}
	return nil
}

// CartMode is the parsed CART_MODE. Call Validate first.
func (c *Config) CartMode() model.CartMode {
	mode, err := model.ParseCartMode(c.Terminal.CartMode)
	if err != nil {
		return model.CartLocal
	}
	return mode
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "dev" || c.Server.AppEnv == "development"
}

// DatabaseConfig adapts the store settings for database.Open.
func (c *Config) DatabaseConfig() *database.Config {
	return &database.Config{
		Driver:       c.Store.Driver,
		SQLitePath:   c.Store.SQLitePath,
		BusyTimeout:  c.Store.BusyTimeout,
		MySQL:        c.Store.MySQL,
		Postgres:     c.Store.Postgres,
		MaxOpenConns: c.Pool.MaxConnections,
	}
}

func (c *Config) PoolConfig() database.PoolConfig {
	return database.PoolConfig{
		MaxConns:       c.Pool.MaxConnections,
		Prewarm:        c.Pool.Prewarm,
		AcquireTimeout: c.Pool.AcquireTimeout,
		HealthTimeout:  c.Pool.HealthTimeout,
	}
}
