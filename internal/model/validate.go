package model

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	namePattern = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.\p{So}\p{Sc}\p{Sk}\p{Sm}]{1,100}$`)

	MaxPrice    = decimal.RequireFromString("999999.99")
	MaxStock    = 999999
	MaxCode     = int64(9999999999)
	MaxQuantity = 9999
)

// ValidateName checks a product or supplier name.
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError(field, "must not be empty")
	}
	if !namePattern.MatchString(name) {
		return NewValidationError(field, "contains unsupported characters or is longer than 100")
	}
	return nil
}

// ValidatePrice accepts amounts in (0, 999999.99].
func ValidatePrice(field string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return NewValidationError(field, "must be greater than zero")
	}
	if price.GreaterThan(MaxPrice) {
		return NewValidationError(field, "must not exceed "+MaxPrice.StringFixed(2))
	}
	return nil
}

func ValidateQuantity(field string, qty int) error {
	if qty <= 0 || qty > MaxQuantity {
		return NewValidationError(field, "must be between 1 and 9999")
	}
	return nil
}

func ValidateStock(field string, stock int) error {
	if stock < 0 || stock > MaxStock {
		return NewValidationError(field, "must be between 0 and 999999")
	}
	return nil
}

func ValidateCode(field string, code int64) error {
	if code <= 0 || code > MaxCode {
		return NewValidationError(field, "must be a positive code of at most 10 digits")
	}
	return nil
}
