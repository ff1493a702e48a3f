package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/puddle/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-till-service/internal/logger"
)

var (
	// ErrPoolExhausted is returned when no connection became free within the acquire timeout.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	ErrPoolClosed    = errors.New("connection pool closed")
)

type PoolConfig struct {
	MaxConns       int
	Prewarm        int
	AcquireTimeout time.Duration
	HealthTimeout  time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:       15,
		Prewarm:        5,
		AcquireTimeout: 5 * time.Second,
		HealthTimeout:  time.Second,
	}
}

// Pool lends out a bounded number of store connections on top of a puddle
// resource pool. A connection is either idle or on loan, never both, and the
// number of live connections never exceeds MaxConns.
type Pool struct {
	res     *puddle.Pool[*Conn]
	db      *sqlx.DB
	dialect Dialect
	cfg     PoolConfig
	logger  logger.ZapLogger
}

type PoolStats struct {
	Live int `json:"live"`
	Idle int `json:"idle"`
	Max  int `json:"max"`
}

// NewPool prepares the pool and opens cfg.Prewarm connections up front.
// Prewarm failures are logged; the pool only fails when no connection at all could be opened.
func NewPool(ctx context.Context, db *sqlx.DB, dialect Dialect, cfg PoolConfig, log logger.ZapLogger) (*Pool, error) {
	def := DefaultPoolConfig()
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = def.MaxConns
	}
	if cfg.Prewarm < 0 {
		cfg.Prewarm = 0
	}
	if cfg.Prewarm > cfg.MaxConns {
		cfg.Prewarm = cfg.MaxConns
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = def.AcquireTimeout
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = def.HealthTimeout
	}

	p := &Pool{
		db:      db,
		dialect: dialect,
		cfg:     cfg,
		logger:  log,
	}
	res, err := puddle.NewPool(&puddle.Config[*Conn]{
		Constructor: p.open,
		Destructor:  p.close,
		MaxSize:     int32(cfg.MaxConns),
	})
	if err != nil {
		return nil, err
	}
	p.res = res

	var lastErr error
	for i := 0; i < cfg.Prewarm; i++ {
		if err := res.CreateResource(ctx); err != nil {
			lastErr = err
			p.logger.Warn("failed to prewarm connection", zap.Int("index", i), zap.Error(err))
		}
	}
	idle := int(res.Stat().IdleResources())
	if cfg.Prewarm > 0 && idle == 0 {
		res.Close()
		return nil, fmt.Errorf("failed to open any pooled connection: %w", lastErr)
	}

	p.logger.Info("connection pool ready",
		zap.String("dialect", dialect.Name()),
		zap.Int("max", cfg.MaxConns),
		zap.Int("prewarmed", idle),
	)
	return p, nil
}

func (p *Pool) Dialect() Dialect { return p.dialect }

// Acquire returns an idle connection, opens a new one while below MaxConns,
// or waits up to AcquireTimeout for one to be released.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	actx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	r, err := p.res.Acquire(actx)
	if err != nil {
		switch {
		case errors.Is(err, puddle.ErrClosedPool):
			return nil, ErrPoolClosed
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			p.logger.Warn("connection acquire timed out", zap.Duration("timeout", p.cfg.AcquireTimeout))
			return nil, ErrPoolExhausted
		default:
			return nil, fmt.Errorf("failed to open connection: %w", err)
		}
	}

	c := r.Value()
	c.res = r
	c.released = false
	return c, nil
}

// Release returns c to the pool. A connection that fails its health check is
// discarded and its slot freed. Releasing twice is a no-op.
func (p *Pool) Release(c *Conn) {
	if c == nil || c.released {
		return
	}
	c.released = true

	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil {
			p.logger.Warn("failed to roll back abandoned transaction", zap.Error(err))
			p.discard(c)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.HealthTimeout)
	defer cancel()
	if err := c.raw.PingContext(ctx); err != nil {
		p.logger.Warn("discarding unhealthy connection", zap.Error(err))
		p.discard(c)
		return
	}
	c.res.Release()
}

// WithConn runs fn on a pooled connection and always releases it.
func (p *Pool) WithConn(ctx context.Context, fn func(*Conn) error) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(c)
	return fn(c)
}

// WithTx runs fn inside a transaction. fn's error rolls everything back and is returned as is.
func (p *Pool) WithTx(ctx context.Context, fn func(*Tx) error) error {
	return p.WithConn(ctx, func(c *Conn) error {
		tx, err := c.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				p.logger.Error("failed to roll back transaction", zap.Error(rbErr))
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

func (p *Pool) Stats() PoolStats {
	s := p.res.Stat()
	return PoolStats{Live: int(s.TotalResources()), Idle: int(s.IdleResources()), Max: int(s.MaxResources())}
}

// Close closes idle connections and stops lending. It waits for connections
// still on loan to be released.
func (p *Pool) Close() error {
	p.res.Close()
	return nil
}

func (p *Pool) open(ctx context.Context) (*Conn, error) {
	raw, err := p.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{raw: raw, dialect: p.dialect, released: true}, nil
}

func (p *Pool) close(c *Conn) {
	if err := c.raw.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		p.logger.Warn("failed to close pooled connection", zap.Error(err))
	}
}

// discard drops c from the pool for good. Returning driver.ErrBadConn from
// Raw makes database/sql close the underlying connection instead of reusing it.
func (p *Pool) discard(c *Conn) {
	c.res.Hijack()
	_ = c.raw.Raw(func(any) error { return driver.ErrBadConn })
	p.close(c)
}
