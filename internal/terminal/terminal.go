// Package terminal drives one point-of-sale terminal: its local cart, its role
// in the shared cart mailbox, and checkout into the till ledger.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fekuna/omnipos-till-service/internal/cart"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/mailbox"
	"github.com/fekuna/omnipos-till-service/internal/mailbox/listener"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/sale"
	saledto "github.com/fekuna/omnipos-till-service/internal/sale/dto"
	"github.com/fekuna/omnipos-till-service/internal/till"
)

var ErrModeUnsupported = errors.New("operation not available in this cart mode")

type NoticeKind int

const (
	// NoticeDrained means entries from another terminal were added to the cart.
	NoticeDrained NoticeKind = iota + 1
	// NoticeSynced means the cart was repainted from the shared mailbox.
	NoticeSynced
)

// Notice tells the presentation layer that the cart changed behind the operator's back.
type Notice struct {
	Kind  NoticeKind
	Lines int
	Total decimal.Decimal
	// Cue asks for an audible signal.
	Cue bool
	At  time.Time
}

type Config struct {
	ID           string
	Mode         model.CartMode
	PollInterval time.Duration
}

type Terminal struct {
	cfg     Config
	cart    *cart.Cart
	tills   till.UseCase
	sales   sale.UseCase
	mailbox mailbox.UseCase
	poller  *listener.Poller
	notices chan Notice
	logger  logger.ZapLogger

	// mu serializes operator actions. The poller only appends or repaints.
	mu           sync.Mutex
	paymentInput atomic.Bool
}

func New(cfg Config, tills till.UseCase, sales sale.UseCase, mb mailbox.UseCase, log logger.ZapLogger) (*Terminal, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("terminal id is required")
	}
	if cfg.Mode == "" {
		cfg.Mode = model.CartLocal
	}

	t := &Terminal{
		cfg:     cfg,
		cart:    cart.New(),
		tills:   tills,
		sales:   sales,
		mailbox: mb,
		notices: make(chan Notice, 32),
		logger:  log.With(zap.String("terminal_id", cfg.ID), zap.String("cart_mode", string(cfg.Mode))),
	}

	if cfg.Mode.Polls() {
		p, err := listener.NewPoller(mb, listener.Config{
			Mode:      cfg.Mode,
			Interval:  cfg.PollInterval,
			Paused:    t.paymentInput.Load,
			LocalView: t.cart.View,
		}, log)
		if err != nil {
			return nil, err
		}
		t.poller = p
	}
	return t, nil
}

func (t *Terminal) ID() string                 { return t.cfg.ID }
func (t *Terminal) Mode() model.CartMode       { return t.cfg.Mode }
func (t *Terminal) Cart() []model.CartLine     { return t.cart.Lines() }
func (t *Terminal) CartTotal() decimal.Decimal { return t.cart.Total() }

// Notices is read by the presentation layer. Notices are dropped when nobody keeps up.
func (t *Terminal) Notices() <-chan Notice {
	return t.notices
}

// SetPaymentInputActive pauses mailbox polling while the operator types a payment amount.
func (t *Terminal) SetPaymentInputActive(active bool) {
	t.paymentInput.Store(active)
}

func (t *Terminal) AddToCart(ctx context.Context, line model.CartLine) error {
	if line.Quantity == 0 {
		line.Quantity = 1
	}
	if err := validateLine(line); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cfg.Mode == model.CartShared {
		if _, err := t.mailbox.Add(ctx, t.cfg.ID, line); err != nil {
			return err
		}
		t.cart.Append(line)
		return nil
	}
	t.cart.Add(line)
	return nil
}

// RemoveFromCart removes one unit locally, or in SHARED mode the first shared row with that name.
func (t *Terminal) RemoveFromCart(ctx context.Context, productName string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cfg.Mode != model.CartShared {
		return t.cart.RemoveOne(productName), nil
	}

	removed, err := t.mailbox.Remove(ctx, productName)
	if err != nil {
		return false, err
	}
	entries, err := t.mailbox.Snapshot(ctx)
	if err != nil {
		return removed, err
	}
	t.cart.Replace(linesFrom(entries))
	return removed, nil
}

// SendToCashier pushes the cart into the mailbox and empties it. EMISOR only.
func (t *Terminal) SendToCashier(ctx context.Context) ([]model.MailboxEntry, error) {
	if t.cfg.Mode != model.CartEmisor {
		return nil, fmt.Errorf("%w: send to cashier in %s", ErrModeUnsupported, t.cfg.Mode)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := t.cart.Lines()
	if len(lines) == 0 {
		return nil, model.NewValidationError("cart", "is empty")
	}

	entries, err := t.mailbox.Push(ctx, t.cfg.ID, lines)
	if err != nil {
		return nil, err
	}
	t.cart.DropFirst(len(lines))
	return entries, nil
}

// Checkout records the cart as a sale in the open till. The cart is kept when the sale fails.
// Lines drained while the sale is being recorded stay in the cart for the next sale.
func (t *Terminal) Checkout(ctx context.Context, method model.PaymentMethod) (*model.Sale, error) {
	if t.cfg.Mode == model.CartEmisor {
		return nil, fmt.Errorf("%w: checkout in %s", ErrModeUnsupported, t.cfg.Mode)
	}
	if !method.Valid() {
		return nil, model.NewValidationError("payment_method", fmt.Sprintf("unknown method %q", method))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := t.cart.Lines()
	if len(lines) == 0 {
		return nil, model.NewValidationError("cart", "is empty")
	}

	tl, err := t.tills.ObtainOrOpen(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]saledto.LineInput, 0, len(lines))
	for _, l := range lines {
		items = append(items, saledto.LineInput{ProductName: l.ProductName, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	s, err := t.sales.Record(ctx, &saledto.RecordSaleInput{TillID: tl.ID, PaymentMethod: method, Items: items})
	if err != nil {
		return nil, err
	}

	if t.cfg.Mode != model.CartShared {
		t.cart.DropFirst(len(lines))
	} else {
		t.cart.Clear()
		if _, err := t.mailbox.Clear(ctx); err != nil {
			// the sale is committed; a stale shared cart is repainted on the next poll
			t.logger.Warn("failed to clear shared cart after checkout", zap.Int64("sale_id", s.ID), zap.Error(err))
		}
	}
	return s, nil
}

// Run polls the mailbox until ctx is done. Modes that do not poll just wait.
func (t *Terminal) Run(ctx context.Context) error {
	if t.poller == nil {
		<-ctx.Done()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return t.poller.Start(gctx)
	})
	g.Go(func() error {
		for ev := range t.poller.Results() {
			t.apply(ev)
		}
		return nil
	})
	return g.Wait()
}

// PollOnce runs one poll and applies it. It reports whether the cart changed.
func (t *Terminal) PollOnce(ctx context.Context) (bool, error) {
	if t.poller == nil {
		return false, fmt.Errorf("%w: poll in %s", ErrModeUnsupported, t.cfg.Mode)
	}
	ev, ok, err := t.poller.PollOnce(ctx)
	if err != nil || !ok {
		return false, err
	}
	t.apply(ev)
	return true, nil
}

func (t *Terminal) apply(ev listener.Event) {
	switch {
	case len(ev.Drained) > 0:
		t.cart.Append(linesFrom(ev.Drained)...)
		t.logger.Info("received cart from mailbox", zap.Int("entries", len(ev.Drained)))
		t.notify(Notice{Kind: NoticeDrained, Lines: len(ev.Drained), Total: model.MailboxTotal(ev.Drained), Cue: true, At: ev.At})
	case ev.Sync != nil:
		t.cart.Replace(linesFrom(ev.Sync.Entries))
		t.notify(Notice{Kind: NoticeSynced, Lines: len(ev.Sync.Entries), Total: ev.Sync.Total, At: ev.At})
	}
}

func (t *Terminal) notify(n Notice) {
	select {
	case t.notices <- n:
	default:
		t.logger.Debug("notice dropped, no reader")
	}
}

func linesFrom(entries []model.MailboxEntry) []model.CartLine {
	lines := make([]model.CartLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, model.CartLineFromEntry(e))
	}
	return lines
}

func validateLine(l model.CartLine) error {
	if err := model.ValidateName("product_name", l.ProductName); err != nil {
		return err
	}
	if err := model.ValidatePrice("unit_price", l.UnitPrice); err != nil {
		return err
	}
	return model.ValidateQuantity("quantity", l.Quantity)
}
