package model

import "github.com/shopspring/decimal"

// CartLine is one row of a terminal's in-memory cart.
type CartLine struct {
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartLineFromEntry turns a drained mailbox row into a cart line.
func CartLineFromEntry(e MailboxEntry) CartLine {
	qty := e.Quantity
	if qty <= 0 {
		qty = 1
	}
	return CartLine{ProductName: e.ProductName, UnitPrice: e.Price, Quantity: qty}
}
