package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

type SQLRepository struct{}

func NewSQLRepository() *SQLRepository {
	return &SQLRepository{}
}

func (r *SQLRepository) Create(ctx context.Context, exec database.Executor, s *model.Sale) (int64, error) {
	query := `
        INSERT INTO sales (till_id, created_at, total, payment_method)
        VALUES (?, ?, ?, ?)
    `
	id, err := exec.InsertID(ctx, query, s.TillID, s.CreatedAt, s.Total, s.PaymentMethod)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sale header: %w", err)
	}
	return id, nil
}

func (r *SQLRepository) CreateLineItem(ctx context.Context, exec database.Executor, li *model.SaleLineItem) (int64, error) {
	query := `
        INSERT INTO sale_line_items (sale_id, product_name, unit_price, quantity, subtotal)
        VALUES (?, ?, ?, ?, ?)
    `
	id, err := exec.InsertID(ctx, query, li.SaleID, li.ProductName, li.UnitPrice, li.Quantity, li.Subtotal)
	if err != nil {
		return 0, fmt.Errorf("failed to insert line item %q: %w", li.ProductName, err)
	}
	return id, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, exec database.Executor, id int64) (*model.Sale, error) {
	var s model.Sale
	err := exec.Get(ctx, &s, `SELECT id, till_id, created_at, total, payment_method FROM sales WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Total = s.Total.Round(2)
	return &s, nil
}

func (r *SQLRepository) FindLineItems(ctx context.Context, exec database.Executor, saleID int64) ([]model.SaleLineItem, error) {
	items := []model.SaleLineItem{}
	query := `
        SELECT id, sale_id, product_name, unit_price, quantity, subtotal
        FROM sale_line_items
        WHERE sale_id = ?
        ORDER BY id
    `
	if err := exec.Select(ctx, &items, query, saleID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SQLRepository) FindLineItem(ctx context.Context, exec database.Executor, id int64) (*model.SaleLineItem, error) {
	var li model.SaleLineItem
	query := `SELECT id, sale_id, product_name, unit_price, quantity, subtotal FROM sale_line_items WHERE id = ?`
	if err := exec.Get(ctx, &li, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &li, nil
}

func (r *SQLRepository) DeleteLineItem(ctx context.Context, exec database.Executor, id int64) (int64, error) {
	res, err := exec.Exec(ctx, `DELETE FROM sale_line_items WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete line item %d: %w", id, err)
	}
	return res.RowsAffected()
}

func (r *SQLRepository) DecrementTotal(ctx context.Context, exec database.Executor, saleID int64, amount decimal.Decimal) (int64, error) {
	res, err := exec.Exec(ctx, `UPDATE sales SET total = total - ? WHERE id = ?`, amount, saleID)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust total of sale %d: %w", saleID, err)
	}
	return res.RowsAffected()
}

func (r *SQLRepository) LastCreatedAt(ctx context.Context, exec database.Executor) (*time.Time, error) {
	var at time.Time
	if err := exec.Get(ctx, &at, `SELECT created_at FROM sales ORDER BY id DESC LIMIT 1`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &at, nil
}
