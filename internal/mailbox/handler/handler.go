package handler

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/mailbox"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/rpc"
)

type MailboxHandler struct {
	uc     mailbox.UseCase
	logger logger.ZapLogger
}

func NewMailboxHandler(uc mailbox.UseCase, log logger.ZapLogger) *MailboxHandler {
	return &MailboxHandler{
		uc:     uc,
		logger: log,
	}
}

// Push expects {items: [{product_name, unit_price, quantity}]}; the origin is the calling terminal.
func (h *MailboxHandler) Push(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var lines []model.CartLine
	for _, item := range rpc.FieldsOf(req).List("items") {
		line, err := mapCartLine(item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	entries, err := h.uc.Push(ctx, rpc.TerminalID(ctx), lines)
	if err != nil {
		h.logger.Error("failed to push cart", zap.String("terminal_id", rpc.TerminalID(ctx)), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return entriesStruct(entries)
}

func (h *MailboxHandler) Drain(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	entries, err := h.uc.Drain(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return entriesStruct(entries)
}

func (h *MailboxHandler) Snapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	entries, err := h.uc.Snapshot(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return entriesStruct(entries)
}

func (h *MailboxHandler) Add(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	line, err := mapCartLine(rpc.FieldsOf(req))
	if err != nil {
		return nil, err
	}
	e, err := h.uc.Add(ctx, rpc.TerminalID(ctx), line)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return rpc.ToStruct(e)
}

func (h *MailboxHandler) Remove(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	removed, err := h.uc.Remove(ctx, req.GetValue())
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return wrapperspb.Bool(removed), nil
}

func (h *MailboxHandler) Clear(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	n, err := h.uc.Clear(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return wrapperspb.Int64(n), nil
}

// A missing quantity means one unit.
func mapCartLine(f rpc.Fields) (model.CartLine, error) {
	price, err := f.Decimal("unit_price")
	if err != nil {
		return model.CartLine{}, err
	}
	qty := 1
	if f.Has("quantity") {
		if qty, err = f.Int("quantity"); err != nil {
			return model.CartLine{}, err
		}
	}
	return model.CartLine{
		ProductName: f.String("product_name"),
		UnitPrice:   price,
		Quantity:    qty,
	}, nil
}

func entriesStruct(entries []model.MailboxEntry) (*structpb.Struct, error) {
	return rpc.ToStruct(map[string]any{
		"entries": entries,
		"total":   model.MailboxTotal(entries),
	})
}
