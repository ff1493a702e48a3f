package till

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/till/dto"
)

type UseCase interface {
	ObtainOrOpen(ctx context.Context) (*model.Till, error)
	Current(ctx context.Context) (*model.Till, error)
	GetTill(ctx context.Context, id int64) (*model.TillSummary, error)
	Reconcile(ctx context.Context, tillID int64) model.Breakdown
	Close(ctx context.Context, tillID int64, operator string) (*model.Till, error)
	CascadeDelete(ctx context.Context, tillID int64) error
	List(ctx context.Context, limit int) ([]model.TillSummary, error)
	SaleDetails(ctx context.Context, tillID int64) ([]model.SaleLineDetail, error)

	RecordExpense(ctx context.Context, input *dto.RecordExpenseInput) (*model.Expense, error)
	ListExpenses(ctx context.Context, tillID int64) ([]model.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ExpenseTotal(ctx context.Context, tillID int64) (decimal.Decimal, error)
}
