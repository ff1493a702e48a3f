package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, exec database.Executor, sale *model.Sale) (int64, error)
	CreateLineItem(ctx context.Context, exec database.Executor, item *model.SaleLineItem) (int64, error)
	FindByID(ctx context.Context, exec database.Executor, id int64) (*model.Sale, error)
	FindLineItems(ctx context.Context, exec database.Executor, saleID int64) ([]model.SaleLineItem, error)
	FindLineItem(ctx context.Context, exec database.Executor, id int64) (*model.SaleLineItem, error)
	DeleteLineItem(ctx context.Context, exec database.Executor, id int64) (int64, error)
	DecrementTotal(ctx context.Context, exec database.Executor, saleID int64, amount decimal.Decimal) (int64, error)
	LastCreatedAt(ctx context.Context, exec database.Executor) (*time.Time, error)
}
