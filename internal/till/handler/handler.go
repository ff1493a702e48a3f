package handler

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/rpc"
	"github.com/fekuna/omnipos-till-service/internal/till"
	"github.com/fekuna/omnipos-till-service/internal/till/dto"
)

type TillHandler struct {
	uc     till.UseCase
	logger logger.ZapLogger
}

func NewTillHandler(uc till.UseCase, log logger.ZapLogger) *TillHandler {
	return &TillHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *TillHandler) OpenTill(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	t, err := h.uc.ObtainOrOpen(ctx)
	if err != nil {
		h.logger.Error("failed to obtain till", zap.String("terminal_id", rpc.TerminalID(ctx)), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(t)
}

func (h *TillHandler) CurrentTill(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	t, err := h.uc.Current(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	if t == nil {
		return nil, status.Error(codes.NotFound, "no open till")
	}
	return rpc.ToStruct(t)
}

func (h *TillHandler) GetTill(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	s, err := h.uc.GetTill(ctx, req.GetValue())
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(s)
}

func (h *TillHandler) Reconcile(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	return rpc.ToStruct(h.uc.Reconcile(ctx, req.GetValue()))
}

// CloseTill takes the operator from the request, falling back to the caller's x-operator.
func (h *TillHandler) CloseTill(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := rpc.FieldsOf(req)
	tillID, err := f.Int64("till_id")
	if err != nil {
		return nil, err
	}
	operator := f.String("operator")
	if operator == "" {
		operator = rpc.Operator(ctx)
	}

	t, err := h.uc.Close(ctx, tillID, operator)
	if err != nil {
		h.logger.Error("failed to close till", zap.Int64("till_id", tillID), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(t)
}

func (h *TillHandler) DeleteTill(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := h.uc.CascadeDelete(ctx, req.GetValue()); err != nil {
		h.logger.Error("failed to delete till", zap.Int64("till_id", req.GetValue()), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *TillHandler) ListTills(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := rpc.FieldsOf(req).Int("limit")
	if err != nil {
		return nil, err
	}
	tills, err := h.uc.List(ctx, limit)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(map[string]any{"tills": tills})
}

func (h *TillHandler) ListSaleDetails(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	items, err := h.uc.SaleDetails(ctx, req.GetValue())
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(map[string]any{"items": items})
}

func (h *TillHandler) RecordExpense(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := rpc.FieldsOf(req)
	tillID, err := f.Int64("till_id")
	if err != nil {
		return nil, err
	}
	amount, err := f.Decimal("amount")
	if err != nil {
		return nil, err
	}

	e, err := h.uc.RecordExpense(ctx, &dto.RecordExpenseInput{
		TillID:      tillID,
		Supplier:    f.String("supplier"),
		Description: f.String("description"),
		Amount:      amount,
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(e)
}

func (h *TillHandler) ListExpenses(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	expenses, err := h.uc.ListExpenses(ctx, req.GetValue())
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	total, err := h.uc.ExpenseTotal(ctx, req.GetValue())
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(map[string]any{"expenses": expenses, "total": total})
}

func (h *TillHandler) DeleteExpense(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := h.uc.DeleteExpense(ctx, req.GetValue()); err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &emptypb.Empty{}, nil
}
