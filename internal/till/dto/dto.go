package dto

import "github.com/shopspring/decimal"

type RecordExpenseInput struct {
	TillID      int64
	Supplier    string
	Description string
	Amount      decimal.Decimal
}

// Options are the operating preferences the ledger reads.
type Options struct {
	// SeparateRestrictedCategory reports restricted-category sales in their own buckets.
	SeparateRestrictedCategory bool
}
