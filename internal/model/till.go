package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TillState is the lifecycle state of a till. The zero value is invalid.
type TillState int

const (
	TillOpen TillState = iota + 1
	TillClosed
)

const (
	tillOpenLabel   = "OPEN"
	tillClosedLabel = "CLOSED"
)

func ParseTillState(v string) (TillState, error) {
	switch v {
	case tillOpenLabel:
		return TillOpen, nil
	case tillClosedLabel:
		return TillClosed, nil
	default:
		return 0, fmt.Errorf("unknown till state %q", v)
	}
}

func (s TillState) String() string {
	switch s {
	case TillOpen:
		return tillOpenLabel
	case TillClosed:
		return tillClosedLabel
	default:
		return fmt.Sprintf("TillState(%d)", int(s))
	}
}

func (s TillState) Valid() bool {
	return s == TillOpen || s == TillClosed
}

// CanTransitionTo reports whether a till in state s may move to next.
// CLOSED is terminal; closing again only rewrites the totals.
func (s TillState) CanTransitionTo(next TillState) bool {
	switch s {
	case TillOpen:
		return next == TillClosed
	case TillClosed:
		return next == TillClosed
	default:
		return false
	}
}

func (s TillState) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("refusing to persist %s", s)
	}
	return s.String(), nil
}

func (s *TillState) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into TillState", src)
	}
	parsed, err := ParseTillState(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s TillState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

type Till struct {
	ID                int64           `db:"id" json:"id"`
	OpenedAt          time.Time       `db:"opened_at" json:"opened_at"`
	ClosedAt          *time.Time      `db:"closed_at" json:"closed_at,omitempty"`
	State             TillState       `db:"state" json:"state"`
	ClosingOperator   *string         `db:"closing_operator" json:"closing_operator,omitempty"`
	GrandTotal        decimal.Decimal `db:"grand_total" json:"grand_total"`
	NetCash           decimal.Decimal `db:"net_cash" json:"net_cash"`
	NetDigital        decimal.Decimal `db:"net_digital" json:"net_digital"`
	RestrictedCash    decimal.Decimal `db:"restricted_cash" json:"restricted_cash"`
	RestrictedDigital decimal.Decimal `db:"restricted_digital" json:"restricted_digital"`
}

// StoredBreakdown returns the totals written at close time.
func (t *Till) StoredBreakdown() Breakdown {
	return Breakdown{
		GrandTotal:        t.GrandTotal,
		NetCash:           t.NetCash,
		NetDigital:        t.NetDigital,
		RestrictedCash:    t.RestrictedCash,
		RestrictedDigital: t.RestrictedDigital,
	}
}

// PaymentSplit accumulates amounts into cash and digital buckets.
type PaymentSplit struct {
	Cash    decimal.Decimal
	Digital decimal.Decimal
}

func (p *PaymentSplit) Add(method PaymentMethod, amount decimal.Decimal) {
	if method.IsCash() {
		p.Cash = p.Cash.Add(amount)
		return
	}
	p.Digital = p.Digital.Add(amount)
}

// Breakdown is the reconciled view of a till.
type Breakdown struct {
	GrandTotal        decimal.Decimal `json:"grand_total"`
	NetCash           decimal.Decimal `json:"net_cash"`
	NetDigital        decimal.Decimal `json:"net_digital"`
	RestrictedCash    decimal.Decimal `json:"restricted_cash"`
	RestrictedDigital decimal.Decimal `json:"restricted_digital"`
	// Degraded is set when the aggregates could not be read and zeros were substituted.
	Degraded bool `json:"degraded,omitempty"`
}

func (b Breakdown) RestrictedTotal() decimal.Decimal {
	return b.RestrictedCash.Add(b.RestrictedDigital)
}

// ComputeBreakdown derives the close-time totals from gross and restricted aggregates.
// GrandTotal always equals the sum of the four buckets.
func ComputeBreakdown(gross, restricted PaymentSplit, separateRestricted bool) Breakdown {
	b := Breakdown{}
	if separateRestricted {
		b.NetCash = gross.Cash.Sub(restricted.Cash)
		b.NetDigital = gross.Digital.Sub(restricted.Digital)
		b.RestrictedCash = restricted.Cash
		b.RestrictedDigital = restricted.Digital
	} else {
		b.NetCash = gross.Cash
		b.NetDigital = gross.Digital
		b.RestrictedCash = decimal.Zero
		b.RestrictedDigital = decimal.Zero
	}
	b.GrandTotal = b.NetCash.Add(b.NetDigital).Add(b.RestrictedCash).Add(b.RestrictedDigital)
	return b
}

// TillSummary is one row of the till history.
type TillSummary struct {
	Till      Till      `json:"till"`
	Breakdown Breakdown `json:"breakdown"`
}

// MethodTotal is one row of a per-payment-method aggregate.
type MethodTotal struct {
	Method PaymentMethod   `db:"payment_method"`
	Amount decimal.Decimal `db:"amount"`
}

// SplitTotals folds per-method rows into cash and digital buckets.
func SplitTotals(rows []MethodTotal) PaymentSplit {
	var p PaymentSplit
	for _, r := range rows {
		p.Add(r.Method, r.Amount)
	}
	return p
}
