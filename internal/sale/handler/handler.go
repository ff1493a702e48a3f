package handler

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/rpc"
	"github.com/fekuna/omnipos-till-service/internal/sale"
	"github.com/fekuna/omnipos-till-service/internal/sale/dto"
)

type SaleHandler struct {
	uc     sale.UseCase
	logger logger.ZapLogger
}

func NewSaleHandler(uc sale.UseCase, log logger.ZapLogger) *SaleHandler {
	return &SaleHandler{
		uc:     uc,
		logger: log,
	}
}

// RecordSale expects {till_id, payment_method, items: [{product_name, unit_price, quantity}]}.
func (h *SaleHandler) RecordSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := mapRecordSaleRequest(req)
	if err != nil {
		return nil, err
	}

	s, err := h.uc.Record(ctx, input)
	if err != nil {
		h.logger.Error("failed to record sale",
			zap.Int64("till_id", input.TillID),
			zap.String("terminal_id", rpc.TerminalID(ctx)),
			zap.Error(err),
		)
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(s)
}

func (h *SaleHandler) ReverseLineItem(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	r, err := h.uc.Reverse(ctx, req.GetValue())
	if err != nil {
		h.logger.Error("failed to reverse line item", zap.Int64("line_item_id", req.GetValue()), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(r)
}

func (h *SaleHandler) GetSale(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	s, err := h.uc.Get(ctx, req.GetValue())
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(s)
}

func (h *SaleHandler) LastSaleAt(ctx context.Context, _ *emptypb.Empty) (*timestamppb.Timestamp, error) {
	at, err := h.uc.LastSaleAt(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	if at == nil {
		return nil, status.Error(codes.NotFound, "no sales recorded")
	}
	return timestamppb.New(*at), nil
}

// Unknown payment methods pass through unchanged so the usecase rejects them
// with its own validation error.
func mapRecordSaleRequest(req *structpb.Struct) (*dto.RecordSaleInput, error) {
	f := rpc.FieldsOf(req)
	tillID, err := f.Int64("till_id")
	if err != nil {
		return nil, err
	}

	method := model.PaymentMethod(f.String("payment_method"))
	if parsed, err := model.ParsePaymentMethod(f.String("payment_method")); err == nil {
		method = parsed
	}

	input := &dto.RecordSaleInput{TillID: tillID, PaymentMethod: method}
	for _, item := range f.List("items") {
		price, err := item.Decimal("unit_price")
		if err != nil {
			return nil, err
		}
		qty, err := item.Int("quantity")
		if err != nil {
			return nil, err
		}
		input.Items = append(input.Items, dto.LineInput{
			ProductName: item.String("product_name"),
			UnitPrice:   price,
			Quantity:    qty,
		})
	}
	return input, nil
}
