package sale

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/sale/dto"
)

type UseCase interface {
	// Record stores a sale with its line items and stock decrements, or nothing at all.
	Record(ctx context.Context, input *dto.RecordSaleInput) (*model.Sale, error)
	// Reverse undoes one sold line item: stock back, line gone, sale total reduced.
	Reverse(ctx context.Context, lineItemID int64) (*model.Reversal, error)
	Get(ctx context.Context, saleID int64) (*model.Sale, error)
	LastSaleAt(ctx context.Context) (*time.Time, error)
}
