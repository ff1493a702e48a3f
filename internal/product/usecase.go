package product

import (
	"context"

	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, code int64) (*model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, error)
	CountLowStock(ctx context.Context, limit int) (int, error)
}
