package dto

import "github.com/shopspring/decimal"

type ProductFilters struct {
	SearchQuery    string // substring of the name
	RestrictedOnly bool
	SortBy         string // name, price, stock
	SortOrder      string // asc, desc
	Limit          int
}

type CreateProductInput struct {
	Code                 int64
	Name                 string
	Price                decimal.Decimal
	Stock                int
	IsRestrictedCategory bool
}
