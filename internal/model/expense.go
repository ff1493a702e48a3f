package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is money paid out of a till, e.g. to a supplier.
type Expense struct {
	ID          int64           `db:"id" json:"id"`
	TillID      int64           `db:"till_id" json:"till_id"`
	Supplier    string          `db:"supplier" json:"supplier"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
