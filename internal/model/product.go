package model

import "github.com/shopspring/decimal"

type Product struct {
	Code                 int64           `db:"code" json:"code"`
	Name                 string          `db:"name" json:"name"`
	Price                decimal.Decimal `db:"price" json:"price"`
	Stock                int             `db:"stock" json:"stock"`
	IsRestrictedCategory bool            `db:"is_restricted_category" json:"is_restricted_category"` // e.g. age-restricted goods
}
