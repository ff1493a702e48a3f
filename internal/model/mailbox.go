package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartMode selects how a terminal composes its cart.
type CartMode string

const (
	CartLocal    CartMode = "LOCAL"
	CartEmisor   CartMode = "EMISOR"
	CartReceptor CartMode = "RECEPTOR"
	CartShared   CartMode = "SHARED"
)

func ParseCartMode(v string) (CartMode, error) {
	m := CartMode(strings.ToUpper(strings.TrimSpace(v)))
	switch m {
	case CartLocal, CartEmisor, CartReceptor, CartShared:
		return m, nil
	}
	return "", fmt.Errorf("unknown cart mode %q", v)
}

// Polls reports whether the mode runs the mailbox poller.
func (m CartMode) Polls() bool {
	return m == CartReceptor || m == CartShared
}

type MailboxEntry struct {
	ID             int64           `db:"id" json:"id"`
	ProductName    string          `db:"product_name" json:"product_name"`
	Price          decimal.Decimal `db:"price" json:"price"`
	Quantity       int             `db:"quantity" json:"quantity"`
	OriginTerminal string          `db:"origin_terminal" json:"origin_terminal"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

func (e MailboxEntry) Subtotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// MailboxTotal sums the monetary value of entries.
func MailboxTotal(entries []MailboxEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// SyncResult is the outcome of diffing the shared table against the displayed cart.
type SyncResult struct {
	Changed bool
	Entries []MailboxEntry
	Total   decimal.Decimal
}
