package handler

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/rpc"
	"github.com/fekuna/omnipos-till-service/internal/terminal"
)

// Terminal is the part of *terminal.Terminal the service drives.
type Terminal interface {
	ID() string
	Mode() model.CartMode
	Cart() []model.CartLine
	AddToCart(ctx context.Context, line model.CartLine) error
	RemoveFromCart(ctx context.Context, productName string) (bool, error)
	SendToCashier(ctx context.Context) ([]model.MailboxEntry, error)
	Checkout(ctx context.Context, method model.PaymentMethod) (*model.Sale, error)
	SetPaymentInputActive(active bool)
	Notices() <-chan terminal.Notice
}

type TerminalHandler struct {
	term   Terminal
	logger logger.ZapLogger
}

func NewTerminalHandler(term Terminal, log logger.ZapLogger) *TerminalHandler {
	return &TerminalHandler{
		term:   term,
		logger: log,
	}
}

func (h *TerminalHandler) GetCart(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return h.cartStruct(nil)
}

// AddToCart expects {product_name, unit_price, quantity}; a missing quantity means one unit.
func (h *TerminalHandler) AddToCart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := rpc.FieldsOf(req)
	price, err := f.Decimal("unit_price")
	if err != nil {
		return nil, err
	}
	qty := 1
	if f.Has("quantity") {
		if qty, err = f.Int("quantity"); err != nil {
			return nil, err
		}
	}

	line := model.CartLine{ProductName: f.String("product_name"), UnitPrice: price, Quantity: qty}
	if err := h.term.AddToCart(ctx, line); err != nil {
		return nil, toStatus(err)
	}
	return h.cartStruct(nil)
}

func (h *TerminalHandler) RemoveFromCart(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	removed, err := h.term.RemoveFromCart(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return h.cartStruct(map[string]any{"removed": removed})
}

func (h *TerminalHandler) SendToCashier(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	entries, err := h.term.SendToCashier(ctx)
	if err != nil {
		if rpc.Code(err) == codes.Internal {
			h.logger.Error("failed to send cart to cashier", zap.Error(err))
		}
		return nil, toStatus(err)
	}
	return rpc.ToStruct(map[string]any{
		"entries": entries,
		"total":   model.MailboxTotal(entries),
	})
}

// Checkout expects {payment_method}.
func (h *TerminalHandler) Checkout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := rpc.FieldsOf(req).String("payment_method")
	method := model.PaymentMethod(raw)
	if parsed, err := model.ParsePaymentMethod(raw); err == nil {
		method = parsed
	}

	s, err := h.term.Checkout(ctx, method)
	if err != nil {
		if rpc.Code(err) == codes.Internal {
			h.logger.Error("failed to check out cart", zap.String("payment_method", raw), zap.Error(err))
		}
		return nil, toStatus(err)
	}
	return rpc.ToStruct(s)
}

// SetPaymentInput pauses mailbox polling while true.
func (h *TerminalHandler) SetPaymentInput(_ context.Context, req *wrapperspb.BoolValue) (*emptypb.Empty, error) {
	h.term.SetPaymentInputActive(req.GetValue())
	return &emptypb.Empty{}, nil
}

// WatchNotices streams cart changes made by the mailbox poller until the caller goes away.
// Each notice goes to one watcher.
func (h *TerminalHandler) WatchNotices(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-h.term.Notices():
			msg, err := noticeStruct(n)
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func (h *TerminalHandler) cartStruct(extra map[string]any) (*structpb.Struct, error) {
	lines := h.term.Cart()
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	m := map[string]any{
		"terminal_id": h.term.ID(),
		"cart_mode":   h.term.Mode(),
		"lines":       lines,
		"total":       total,
	}
	for k, v := range extra {
		m[k] = v
	}
	return rpc.ToStruct(m)
}

func noticeStruct(n terminal.Notice) (*structpb.Struct, error) {
	kind := "drained"
	if n.Kind == terminal.NoticeSynced {
		kind = "synced"
	}
	return rpc.ToStruct(map[string]any{
		"kind":  kind,
		"lines": n.Lines,
		"total": n.Total,
		"cue":   n.Cue,
		"at":    n.At,
	})
}

func toStatus(err error) error {
	if errors.Is(err, terminal.ErrModeUnsupported) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return rpc.ToStatus(err)
}
