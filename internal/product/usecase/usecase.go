package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/product"
	"github.com/fekuna/omnipos-till-service/internal/product/dto"
)

var ErrCodeTaken = errors.New("product code already exists")

type productUseCase struct {
	pool   *database.Pool
	repo   product.Repository
	logger logger.ZapLogger
}

func NewProductUseCase(pool *database.Pool, repo product.Repository, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		pool:   pool,
		repo:   repo,
		logger: log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := model.ValidateCode("code", input.Code); err != nil {
		return nil, err
	}
	if err := model.ValidateName("name", input.Name); err != nil {
		return nil, err
	}
	if err := model.ValidatePrice("price", input.Price); err != nil {
		return nil, err
	}
	if err := model.ValidateStock("stock", input.Stock); err != nil {
		return nil, err
	}

	p := &model.Product{
		Code:                 input.Code,
		Name:                 strings.TrimSpace(input.Name),
		Price:                input.Price,
		Stock:                input.Stock,
		IsRestrictedCategory: input.IsRestrictedCategory,
	}

	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		existing, err := uc.repo.FindByCode(ctx, c, p.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %d", ErrCodeTaken, p.Code)
		}
		return uc.repo.Create(ctx, c, p)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("product created", zap.Int64("code", p.Code), zap.String("name", p.Name))
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, code int64) (*model.Product, error) {
	var p *model.Product
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		p, err = uc.repo.FindByCode(ctx, c, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

func (uc *productUseCase) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var p *model.Product
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		p, err = uc.repo.FindByName(ctx, c, strings.TrimSpace(name))
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, error) {
	if filters == nil {
		filters = &dto.ProductFilters{}
	}
	var products []model.Product
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		products, err = uc.repo.FindAll(ctx, c, filters)
		return err
	})
	return products, err
}

func (uc *productUseCase) CountLowStock(ctx context.Context, limit int) (int, error) {
	var n int
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		n, err = uc.repo.CountLowStock(ctx, c, limit)
		return err
	})
	return n, err
}
