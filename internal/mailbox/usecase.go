package mailbox

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-till-service/internal/model"
)

type UseCase interface {
	// Push hands a cart to the cashier terminal, one entry per line.
	Push(ctx context.Context, origin string, lines []model.CartLine) ([]model.MailboxEntry, error)
	// Drain claims every entry currently in the mailbox. Only entries this call
	// removed are returned, so two drains never deliver the same row.
	Drain(ctx context.Context) ([]model.MailboxEntry, error)
	Snapshot(ctx context.Context) ([]model.MailboxEntry, error)
	SyncDiff(ctx context.Context, localCount int, localTotal decimal.Decimal) (model.SyncResult, error)

	Add(ctx context.Context, origin string, line model.CartLine) (*model.MailboxEntry, error)
	Remove(ctx context.Context, productName string) (bool, error)
	Clear(ctx context.Context) (int64, error)
}
