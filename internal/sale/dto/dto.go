package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-till-service/internal/model"
)

type LineInput struct {
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

type RecordSaleInput struct {
	TillID        int64
	PaymentMethod model.PaymentMethod
	Items         []LineInput
}

type Options struct {
	// BoundedStock makes every sold unit come out of Product.stock.
	BoundedStock bool
}
