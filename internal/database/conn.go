package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/puddle/v2"
	"github.com/jmoiron/sqlx"
)

// Executor is what repositories run queries against. Both a pooled *Conn and
// a *Tx opened on it satisfy it, so a repository method works inside or
// outside a transaction.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Get(ctx context.Context, dest any, query string, args ...any) error
	Select(ctx context.Context, dest any, query string, args ...any) error
	// InsertID runs an INSERT and returns the generated id column.
	InsertID(ctx context.Context, query string, args ...any) (int64, error)
	Dialect() Dialect
}

var errTxActive = errors.New("connection already has an active transaction")

// Conn is a connection on loan from the Pool. It must be handed back with
// Pool.Release, normally through WithConn or WithTx.
type Conn struct {
	raw      *sqlx.Conn
	dialect  Dialect
	res      *puddle.Resource[*Conn]
	tx       *Tx
	released bool
}

func (c *Conn) Dialect() Dialect { return c.dialect }

func (c *Conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.raw.ExecContext(ctx, c.dialect.Rebind(query), args...)
}

func (c *Conn) Get(ctx context.Context, dest any, query string, args ...any) error {
	return c.raw.GetContext(ctx, dest, c.dialect.Rebind(query), args...)
}

func (c *Conn) Select(ctx context.Context, dest any, query string, args ...any) error {
	return c.raw.SelectContext(ctx, dest, c.dialect.Rebind(query), args...)
}

func (c *Conn) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	return insertID(ctx, c, query, args)
}

// Begin starts a transaction on this connection. Only one may be active at a time.
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	if c.tx != nil {
		return nil, errTxActive
	}
	raw, err := c.raw.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	c.tx = &Tx{raw: raw, conn: c}
	return c.tx, nil
}

// Tx is a transaction bound to a pooled connection.
type Tx struct {
	raw  *sqlx.Tx
	conn *Conn
	done bool
}

func (t *Tx) Dialect() Dialect { return t.conn.dialect }

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.raw.ExecContext(ctx, t.conn.dialect.Rebind(query), args...)
}

func (t *Tx) Get(ctx context.Context, dest any, query string, args ...any) error {
	return t.raw.GetContext(ctx, dest, t.conn.dialect.Rebind(query), args...)
}

func (t *Tx) Select(ctx context.Context, dest any, query string, args ...any) error {
	return t.raw.SelectContext(ctx, dest, t.conn.dialect.Rebind(query), args...)
}

func (t *Tx) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	return insertID(ctx, t, query, args)
}

func (t *Tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.finish()
	return t.raw.Commit()
}

func (t *Tx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.finish()
	return t.raw.Rollback()
}

func (t *Tx) finish() {
	t.done = true
	if t.conn.tx == t {
		t.conn.tx = nil
	}
}

func insertID(ctx context.Context, e Executor, query string, args []any) (int64, error) {
	if e.Dialect().SupportsReturning() {
		var id int64
		if err := e.Get(ctx, &id, query+" RETURNING id", args...); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := e.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read generated id: %w", err)
	}
	return id, nil
}
