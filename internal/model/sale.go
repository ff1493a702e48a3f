package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentQR       PaymentMethod = "qr"
)

func ParsePaymentMethod(v string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(v)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment method %q", v)
	}
	return m, nil
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentQR:
		return true
	}
	return false
}

// IsCash reports whether the method reconciles into the cash drawer.
// Every other method counts as digital.
func (m PaymentMethod) IsCash() bool {
	return m == PaymentCash
}

type Sale struct {
	ID            int64           `db:"id" json:"id"`
	TillID        int64           `db:"till_id" json:"till_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	Total         decimal.Decimal `db:"total" json:"total"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"payment_method"`
	Items         []SaleLineItem  `db:"-" json:"items,omitempty"`
}

type SaleLineItem struct {
	ID          int64           `db:"id" json:"id"`
	SaleID      int64           `db:"sale_id" json:"sale_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// NewLineItem builds an unsaved line with subtotal = unit price * quantity.
func NewLineItem(productName string, unitPrice decimal.Decimal, quantity int) SaleLineItem {
	return SaleLineItem{
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Subtotal:    unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// SumSubtotals is the sale total for a set of lines.
func SumSubtotals(items []SaleLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// SaleLineDetail is a line item joined with its sale header, as listed for returns.
type SaleLineDetail struct {
	LineItemID    int64           `db:"line_item_id" json:"line_item_id"`
	SaleID        int64           `db:"sale_id" json:"sale_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	ProductName   string          `db:"product_name" json:"product_name"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity      int             `db:"quantity" json:"quantity"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"payment_method"`
}

// Reversal is the outcome of undoing one sold line item.
type Reversal struct {
	LineItem      SaleLineItem    `json:"line_item"`
	SaleTotal     decimal.Decimal `json:"sale_total"`
	StockRestored bool            `json:"stock_restored"`
}
