package listener

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/mailbox"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

const DefaultInterval = 2 * time.Second

// Event is one poll outcome worth showing to the operator.
type Event struct {
	Mode model.CartMode
	// Drained is set in RECEPTOR mode: entries now owned by this terminal.
	Drained []model.MailboxEntry
	// Sync is set in SHARED mode when the shared cart differs from the displayed one.
	Sync *model.SyncResult
	At   time.Time
}

type Config struct {
	Mode     model.CartMode
	Interval time.Duration
	// Paused skips a tick, e.g. while the operator is typing a payment amount.
	Paused func() bool
	// LocalView reports what the terminal currently displays. Required in SHARED mode.
	LocalView func() (count int, total decimal.Decimal)
}

// Poller watches the shared cart mailbox on a fixed interval. It never holds a
// store connection between ticks.
type Poller struct {
	uc      mailbox.UseCase
	cfg     Config
	results chan Event
	logger  logger.ZapLogger
}

func NewPoller(uc mailbox.UseCase, cfg Config, log logger.ZapLogger) (*Poller, error) {
	if !cfg.Mode.Polls() {
		return nil, fmt.Errorf("cart mode %s does not poll the mailbox", cfg.Mode)
	}
	if cfg.Mode == model.CartShared && cfg.LocalView == nil {
		return nil, fmt.Errorf("shared mode needs a local cart view")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Paused == nil {
		cfg.Paused = func() bool { return false }
	}
	return &Poller{
		uc:      uc,
		cfg:     cfg,
		results: make(chan Event, 16),
		logger:  log.With(zap.String("cart_mode", string(cfg.Mode))),
	}, nil
}

// Results delivers poll outcomes. It is closed when Start returns. Drained events are
// never dropped, so the reader must keep reading until the channel is closed.
func (p *Poller) Results() <-chan Event {
	return p.results
}

func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("Starting mailbox poller", zap.Duration("interval", p.cfg.Interval))
	defer close(p.results)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stopping mailbox poller")
			return nil
		case <-ticker.C:
			ev, ok, err := p.PollOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.logger.Warn("mailbox poll failed", zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			if len(ev.Drained) > 0 {
				// the rows are already deleted from the table, so the event must reach the reader
				p.results <- ev
				continue
			}
			select {
			case p.results <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// PollOnce runs a single poll. ok is false when paused or when there is nothing to report.
func (p *Poller) PollOnce(ctx context.Context) (Event, bool, error) {
	if p.cfg.Paused() {
		return Event{}, false, nil
	}

	switch p.cfg.Mode {
	case model.CartReceptor:
		drained, err := p.uc.Drain(ctx)
		if err != nil {
			return Event{}, false, err
		}
		if len(drained) == 0 {
			return Event{}, false, nil
		}
		return Event{Mode: p.cfg.Mode, Drained: drained, At: time.Now()}, true, nil

	case model.CartShared:
		count, total := p.cfg.LocalView()
		res, err := p.uc.SyncDiff(ctx, count, total)
		if err != nil {
			return Event{}, false, err
		}
		if !res.Changed {
			return Event{}, false, nil
		}
		return Event{Mode: p.cfg.Mode, Sync: &res, At: time.Now()}, true, nil
	}
	return Event{}, false, nil
}
