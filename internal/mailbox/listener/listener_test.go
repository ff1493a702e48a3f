package listener

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-till-service/internal/database/databasetest"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/mailbox"
	"github.com/fekuna/omnipos-till-service/internal/mailbox/repository"
	"github.com/fekuna/omnipos-till-service/internal/mailbox/usecase"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

func createTestUseCase(t *testing.T) mailbox.UseCase {
	t.Helper()
	pool, _ := databasetest.NewPool(t)
	return usecase.NewMailboxUseCase(pool, repository.NewSQLRepository(), logger.NewNop())
}

func pushThree(t *testing.T, uc mailbox.UseCase) {
	t.Helper()
	_, err := uc.Push(context.Background(), "front-1", []model.CartLine{
		{ProductName: "Soda", UnitPrice: decimal.NewFromInt(1000), Quantity: 1},
		{ProductName: "Chips", UnitPrice: decimal.NewFromInt(500), Quantity: 1},
		{ProductName: "Gum", UnitPrice: decimal.NewFromInt(150), Quantity: 1},
	})
	require.NoError(t, err)
}

func TestNewPoller_RejectsNonPollingModes(t *testing.T) {
	uc := createTestUseCase(t)

	_, err := NewPoller(uc, Config{Mode: model.CartEmisor}, logger.NewNop())
	assert.Error(t, err)
	_, err = NewPoller(uc, Config{Mode: model.CartLocal}, logger.NewNop())
	assert.Error(t, err)
	_, err = NewPoller(uc, Config{Mode: model.CartShared}, logger.NewNop())
	assert.Error(t, err, "shared mode without a local view")
}

func TestPollOnce_ReceptorDrains(t *testing.T) {
	uc := createTestUseCase(t)
	p, err := NewPoller(uc, Config{Mode: model.CartReceptor}, logger.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := p.PollOnce(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty mailbox reports nothing")

	pushThree(t, uc)
	ev, ok, err := p.PollOnce(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, ev.Drained, 3)
	assert.Nil(t, ev.Sync)

	left, err := uc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestPollOnce_SkipsWhilePaused(t *testing.T) {
	uc := createTestUseCase(t)
	var paused atomic.Bool
	paused.Store(true)

	p, err := NewPoller(uc, Config{Mode: model.CartReceptor, Paused: paused.Load}, logger.NewNop())
	require.NoError(t, err)
	pushThree(t, uc)

	_, ok, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	snapshot, err := uc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot, 3, "paused poll must not drain")

	paused.Store(false)
	ev, ok, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, ev.Drained, 3)
}

func TestPollOnce_SharedDiffs(t *testing.T) {
	uc := createTestUseCase(t)
	var shown atomic.Int64

	p, err := NewPoller(uc, Config{
		Mode: model.CartShared,
		LocalView: func() (int, decimal.Decimal) {
			return int(shown.Load()), decimal.NewFromInt(1650).Mul(decimal.NewFromInt(shown.Load() / 3))
		},
	}, logger.NewNop())
	require.NoError(t, err)

	pushThree(t, uc)
	ev, ok, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, ev.Sync)
	assert.Len(t, ev.Sync.Entries, 3)

	// the terminal now displays the same three rows
	shown.Store(3)
	_, ok, err = p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	snapshot, err := uc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot, 3, "shared mode never drains")
}

func TestStart_DeliversOnChannelAndStops(t *testing.T) {
	uc := createTestUseCase(t)
	p, err := NewPoller(uc, Config{Mode: model.CartReceptor, Interval: 20 * time.Millisecond}, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	pushThree(t, uc)

	select {
	case ev := <-p.Results():
		assert.Len(t, ev.Drained, 3)
		assert.Equal(t, model.CartReceptor, ev.Mode)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not deliver")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}

	_, open := <-p.Results()
	assert.False(t, open)
}

// cancelAfterDrain stops the poller right after rows have been claimed.
type cancelAfterDrain struct {
	mailbox.UseCase
	cancel context.CancelFunc
}

func (c cancelAfterDrain) Drain(ctx context.Context) ([]model.MailboxEntry, error) {
	entries, err := c.UseCase.Drain(ctx)
	if len(entries) > 0 {
		c.cancel()
	}
	return entries, err
}

func TestStart_DeliversDrainedEntriesWhenStopping(t *testing.T) {
	uc := createTestUseCase(t)
	pushThree(t, uc)

	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		p, err := NewPoller(cancelAfterDrain{UseCase: uc, cancel: cancel}, Config{Mode: model.CartReceptor, Interval: 5 * time.Millisecond}, logger.NewNop())
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() { done <- p.Start(ctx) }()

		var drained []model.MailboxEntry
		for ev := range p.Results() {
			drained = append(drained, ev.Drained...)
		}
		require.NoError(t, <-done)
		require.Len(t, drained, 3, "run %d", i)

		pushThree(t, uc)
	}
}
