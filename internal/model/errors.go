package model

import (
	"errors"
	"fmt"
)

var (
	// ErrTransactionFailure marks a multi-statement mutation that was rolled back as a whole.
	ErrTransactionFailure = errors.New("transaction rolled back")
	// ErrStaleStockUpdate is a transaction failure where a stock update matched no product row.
	ErrStaleStockUpdate = fmt.Errorf("stale stock update: %w", ErrTransactionFailure)
	// ErrReconciliationRead is reported when the till aggregates could not be read.
	ErrReconciliationRead = errors.New("reconciliation read failed")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrTillNotFound     = errors.New("till not found")
	ErrTillNotOpen      = errors.New("till is not open")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrLineItemNotFound = errors.New("sale line item not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrExpenseNotFound  = errors.New("expense not found")
)

// ValidationError rejects input before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StaleStockError names the product whose stock row could not be updated.
type StaleStockError struct {
	ProductName string
}

func (e *StaleStockError) Error() string {
	return fmt.Sprintf("stock update matched no product named %q", e.ProductName)
}

func (e *StaleStockError) Unwrap() error {
	return ErrStaleStockUpdate
}
