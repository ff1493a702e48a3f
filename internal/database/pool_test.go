package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-till-service/internal/logger"
)

func createTestPool(t *testing.T, cfg PoolConfig) *Pool {
	t.Helper()

	ctx := context.Background()
	db, dialect, err := Open(ctx, &Config{
		Driver:       DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "pool.db"),
		BusyTimeout:  time.Second,
		MaxOpenConns: cfg.MaxConns,
	})
	require.NoError(t, err)
	_, err = Migrate(ctx, db, dialect)
	require.NoError(t, err)

	pool, err := NewPool(ctx, db, dialect, cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
		db.Close()
	})
	return pool
}

func TestPool_Prewarm(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 5, Prewarm: 3})

	stats := pool.Stats()
	assert.Equal(t, 3, stats.Live)
	assert.Equal(t, 3, stats.Idle)
	assert.Equal(t, 5, stats.Max)
}

func TestPool_OpensOnDemandUpToMax(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 3, Prewarm: 1, AcquireTimeout: 100 * time.Millisecond})
	ctx := context.Background()

	var conns []*Conn
	for i := 0; i < 3; i++ {
		c, err := pool.Acquire(ctx)
		require.NoError(t, err)
		conns = append(conns, c)
	}
	assert.Equal(t, 3, pool.Stats().Live)
	assert.Equal(t, 0, pool.Stats().Idle)

	start := time.Now()
	_, err := pool.Acquire(ctx)
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 3, pool.Stats().Live)

	for _, c := range conns {
		pool.Release(c)
	}
	assert.Equal(t, 3, pool.Stats().Idle)
}

func TestPool_WaiterGetsReleasedConnection(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 1, Prewarm: 1, AcquireTimeout: 2 * time.Second})
	ctx := context.Background()

	held, err := pool.Acquire(ctx)
	require.NoError(t, err)

	got := make(chan *Conn, 1)
	go func() {
		c, err := pool.Acquire(ctx)
		if err == nil {
			got <- c
		}
		close(got)
	}()

	time.Sleep(50 * time.Millisecond)
	pool.Release(held)

	select {
	case c, ok := <-got:
		require.True(t, ok, "waiter should have acquired a connection")
		assert.Same(t, held, c)
		pool.Release(c)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by release")
	}
}

func TestPool_NeverExceedsMaxUnderContention(t *testing.T) {
	const maxConns = 3
	pool := createTestPool(t, PoolConfig{MaxConns: maxConns, Prewarm: 0, AcquireTimeout: 2 * time.Second})
	ctx := context.Background()

	var (
		mu      sync.Mutex
		onLoan  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.WithConn(ctx, func(c *Conn) error {
				mu.Lock()
				onLoan++
				if onLoan > maxSeen {
					maxSeen = onLoan
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				onLoan--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen, maxConns)
	assert.LessOrEqual(t, pool.Stats().Live, maxConns)
}

func TestPool_DiscardsDeadConnection(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 2, Prewarm: 1})
	ctx := context.Background()

	c, err := pool.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, c.raw.Close())

	pool.Release(c)
	assert.Equal(t, 0, pool.Stats().Live)
	assert.Equal(t, 0, pool.Stats().Idle)

	// the freed slot can be reused
	c2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, c, c2)
	pool.Release(c2)
	assert.Equal(t, 1, pool.Stats().Live)
}

func TestPool_DoubleReleaseIsNoop(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 2, Prewarm: 1})

	c, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Release(c)
	pool.Release(c)

	assert.Equal(t, 1, pool.Stats().Idle)
	assert.Equal(t, 1, pool.Stats().Live)
}

func TestPool_AcquireHonoursContext(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 1, Prewarm: 1, AcquireTimeout: 5 * time.Second})

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer pool.Release(held)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_WithTxRollsBackOnError(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 2, Prewarm: 1})
	ctx := context.Background()
	boom := errors.New("boom")

	err := pool.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO products (code, name, price, stock) VALUES (?, ?, ?, ?)`, 1, "Tea", "1.50", 3)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, pool.WithConn(ctx, func(c *Conn) error {
		return c.Get(ctx, &n, `SELECT COUNT(*) FROM products`)
	}))
	assert.Zero(t, n)
}

func TestPool_WithTxCommits(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 2, Prewarm: 1})
	ctx := context.Background()

	var id int64
	err := pool.WithTx(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.InsertID(ctx,
			`INSERT INTO shared_cart_mailbox (product_name, price, quantity, origin_terminal, created_at) VALUES (?, ?, ?, ?, ?)`,
			"Tea", "1.50", 1, "t1", time.Now().UTC())
		return err
	})
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestPool_ReleaseRollsBackAbandonedTx(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 1, Prewarm: 1})
	ctx := context.Background()

	c, err := pool.Acquire(ctx)
	require.NoError(t, err)
	tx, err := c.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO products (code, name, price, stock) VALUES (?, ?, ?, ?)`, 1, "Tea", "1.50", 3)
	require.NoError(t, err)
	pool.Release(c)

	var n int
	require.NoError(t, pool.WithConn(ctx, func(c *Conn) error {
		return c.Get(ctx, &n, `SELECT COUNT(*) FROM products`)
	}))
	assert.Zero(t, n)
}

func TestPool_Close(t *testing.T) {
	pool := createTestPool(t, PoolConfig{MaxConns: 2, Prewarm: 2})

	require.NoError(t, pool.Close())
	assert.Equal(t, 0, pool.Stats().Live)

	_, err := pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}
