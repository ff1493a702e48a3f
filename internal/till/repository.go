package till

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, exec database.Executor, openedAt time.Time) (int64, error)
	FindByID(ctx context.Context, exec database.Executor, id int64) (*model.Till, error)
	// LockByID is FindByID holding the row until the transaction ends. Closing a till and
	// recording a sale into it both take this lock.
	LockByID(ctx context.Context, exec database.Executor, id int64) (*model.Till, error)
	FindLatestOpen(ctx context.Context, exec database.Executor) (*model.Till, error)
	FindAll(ctx context.Context, exec database.Executor, limit int) ([]model.Till, error)
	UpdateClosed(ctx context.Context, exec database.Executor, till *model.Till) error
	// DeleteCascade removes the till with its line items, sales and expenses. exec should be a transaction.
	DeleteCascade(ctx context.Context, exec database.Executor, id int64) error

	GrossByMethod(ctx context.Context, exec database.Executor, tillID int64) ([]model.MethodTotal, error)
	RestrictedByMethod(ctx context.Context, exec database.Executor, tillID int64) ([]model.MethodTotal, error)
	SaleDetails(ctx context.Context, exec database.Executor, tillID int64) ([]model.SaleLineDetail, error)

	CreateExpense(ctx context.Context, exec database.Executor, e *model.Expense) (int64, error)
	FindExpenses(ctx context.Context, exec database.Executor, tillID int64) ([]model.Expense, error)
	DeleteExpense(ctx context.Context, exec database.Executor, id int64) (int64, error)
	SumExpenses(ctx context.Context, exec database.Executor, tillID int64) (decimal.Decimal, error)
}
