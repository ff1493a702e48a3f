package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/product"
	"github.com/fekuna/omnipos-till-service/internal/product/dto"
	"github.com/fekuna/omnipos-till-service/internal/product/usecase"
	"github.com/fekuna/omnipos-till-service/internal/rpc"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := rpc.FieldsOf(req)
	code, err := f.Int64("code")
	if err != nil {
		return nil, err
	}
	price, err := f.Decimal("price")
	if err != nil {
		return nil, err
	}
	stock, err := f.Int("stock")
	if err != nil {
		return nil, err
	}

	input := &dto.CreateProductInput{
		Code:                 code,
		Name:                 f.String("name"),
		Price:                price,
		Stock:                stock,
		IsRestrictedCategory: f.Bool("is_restricted_category"),
	}

	p, err := h.uc.CreateProduct(ctx, input)
	if err != nil {
		if errors.Is(err, usecase.ErrCodeTaken) {
			return nil, status.Error(codes.AlreadyExists, err.Error())
		}
		h.logger.Error("failed to create product", zap.Int64("code", code), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(p)
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	p, err := h.uc.GetProduct(ctx, req.GetValue())
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(p)
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := rpc.FieldsOf(req)
	limit, err := f.Int("limit")
	if err != nil {
		return nil, err
	}

	filters := &dto.ProductFilters{
		SearchQuery:    f.String("query"),
		RestrictedOnly: f.Bool("restricted_only"),
		SortBy:         f.String("sort_by"),
		SortOrder:      f.String("sort_order"),
		Limit:          limit,
	}
	return h.list(ctx, filters)
}

func (h *ProductHandler) SearchProducts(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return h.list(ctx, &dto.ProductFilters{SearchQuery: req.GetValue()})
}

func (h *ProductHandler) CountLowStock(ctx context.Context, req *wrapperspb.Int32Value) (*wrapperspb.Int64Value, error) {
	n, err := h.uc.CountLowStock(ctx, int(req.GetValue()))
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return wrapperspb.Int64(int64(n)), nil
}

func (h *ProductHandler) list(ctx context.Context, filters *dto.ProductFilters) (*structpb.Struct, error) {
	products, err := h.uc.ListProducts(ctx, filters)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return rpc.ToStruct(map[string]any{
		"products": products,
		"total":    len(products),
	})
}
