package product

import (
	"context"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, exec database.Executor, product *model.Product) error
	FindByCode(ctx context.Context, exec database.Executor, code int64) (*model.Product, error)
	FindByName(ctx context.Context, exec database.Executor, name string) (*model.Product, error)
	FindAll(ctx context.Context, exec database.Executor, filters *dto.ProductFilters) ([]model.Product, error)
	CountLowStock(ctx context.Context, exec database.Executor, limit int) (int, error)

	// Stock moves return the number of product rows touched. Callers treat zero as a stale update.
	DecrementStock(ctx context.Context, exec database.Executor, name string, qty int) (int64, error)
	IncrementStock(ctx context.Context, exec database.Executor, name string, qty int) (int64, error)
}
