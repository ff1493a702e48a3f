package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/mailbox"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

// diffTolerance is how far the shared total may drift from the displayed one before a repaint.
var diffTolerance = decimal.RequireFromString("0.01")

type mailboxUseCase struct {
	pool   *database.Pool
	repo   mailbox.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewMailboxUseCase(pool *database.Pool, repo mailbox.Repository, log logger.ZapLogger) mailbox.UseCase {
	return &mailboxUseCase{
		pool:   pool,
		repo:   repo,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *mailboxUseCase) Push(ctx context.Context, origin string, lines []model.CartLine) ([]model.MailboxEntry, error) {
	if len(lines) == 0 {
		return nil, model.NewValidationError("lines", "nothing to send")
	}
	entries := make([]model.MailboxEntry, 0, len(lines))
	for i, l := range lines {
		e, err := uc.newEntry(fmt.Sprintf("lines[%d]", i), origin, l)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	err := uc.pool.WithTx(ctx, func(tx *database.Tx) error {
		for i := range entries {
			id, err := uc.repo.Insert(ctx, tx, &entries[i])
			if err != nil {
				return err
			}
			entries[i].ID = id
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("mailbox push rolled back", zap.String("origin", origin), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("cart pushed to mailbox", zap.String("origin", origin), zap.Int("entries", len(entries)))
	return entries, nil
}

func (uc *mailboxUseCase) Drain(ctx context.Context) ([]model.MailboxEntry, error) {
	var claimed []model.MailboxEntry
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		entries, err := uc.repo.FindAll(ctx, c)
		if err != nil {
			return err
		}
		claimed = make([]model.MailboxEntry, 0, len(entries))
		for _, e := range entries {
			rows, err := uc.repo.DeleteByID(ctx, c, e.ID)
			if err != nil {
				return err
			}
			// zero rows: another receptor claimed it between our read and delete
			if rows == 1 {
				claimed = append(claimed, e)
			}
		}
		return nil
	})
	if err != nil {
		// entries claimed before the failure are still handed back; they are gone from the table
		if len(claimed) > 0 {
			uc.logger.Error("mailbox drain interrupted", zap.Int("claimed", len(claimed)), zap.Error(err))
			return claimed, nil
		}
		return nil, err
	}
	if len(claimed) > 0 {
		uc.logger.Debug("mailbox drained", zap.Int("entries", len(claimed)))
	}
	return claimed, nil
}

func (uc *mailboxUseCase) Snapshot(ctx context.Context) ([]model.MailboxEntry, error) {
	var entries []model.MailboxEntry
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		entries, err = uc.repo.FindAll(ctx, c)
		return err
	})
	return entries, err
}

func (uc *mailboxUseCase) SyncDiff(ctx context.Context, localCount int, localTotal decimal.Decimal) (model.SyncResult, error) {
	entries, err := uc.Snapshot(ctx)
	if err != nil {
		return model.SyncResult{}, err
	}
	total := model.MailboxTotal(entries).Round(2)
	changed := len(entries) != localCount || total.Sub(localTotal).Abs().GreaterThan(diffTolerance)
	return model.SyncResult{Changed: changed, Entries: entries, Total: total}, nil
}

func (uc *mailboxUseCase) Add(ctx context.Context, origin string, line model.CartLine) (*model.MailboxEntry, error) {
	e, err := uc.newEntry("line", origin, line)
	if err != nil {
		return nil, err
	}
	err = uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		e.ID, err = uc.repo.Insert(ctx, c, &e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (uc *mailboxUseCase) Remove(ctx context.Context, productName string) (bool, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return false, model.NewValidationError("product_name", "must not be empty")
	}
	var removed bool
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		rows, err := uc.repo.DeleteFirstByName(ctx, c, name)
		removed = rows > 0
		return err
	})
	return removed, err
}

func (uc *mailboxUseCase) Clear(ctx context.Context) (int64, error) {
	var n int64
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		n, err = uc.repo.DeleteAll(ctx, c)
		return err
	})
	if err == nil && n > 0 {
		uc.logger.Info("mailbox cleared", zap.Int64("entries", n))
	}
	return n, err
}

func (uc *mailboxUseCase) newEntry(field, origin string, l model.CartLine) (model.MailboxEntry, error) {
	if err := model.ValidateName(field+".product_name", l.ProductName); err != nil {
		return model.MailboxEntry{}, err
	}
	if err := model.ValidatePrice(field+".unit_price", l.UnitPrice); err != nil {
		return model.MailboxEntry{}, err
	}
	qty := l.Quantity
	if qty == 0 {
		qty = 1
	}
	if err := model.ValidateQuantity(field+".quantity", qty); err != nil {
		return model.MailboxEntry{}, err
	}
	return model.MailboxEntry{
		ProductName:    strings.TrimSpace(l.ProductName),
		Price:          l.UnitPrice,
		Quantity:       qty,
		OriginTerminal: origin,
		CreatedAt:      uc.now(),
	}, nil
}
