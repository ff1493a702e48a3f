package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/product/dto"
)

const productColumns = `code, name, price, stock, is_restricted_category`

type SQLRepository struct{}

func NewSQLRepository() *SQLRepository {
	return &SQLRepository{}
}

func (r *SQLRepository) Create(ctx context.Context, exec database.Executor, p *model.Product) error {
	query := `
        INSERT INTO products (code, name, price, stock, is_restricted_category)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := exec.Exec(ctx, query, p.Code, p.Name, p.Price, p.Stock, p.IsRestrictedCategory)
	if err != nil {
		return fmt.Errorf("failed to insert product %d: %w", p.Code, err)
	}
	return nil
}

func (r *SQLRepository) FindByCode(ctx context.Context, exec database.Executor, code int64) (*model.Product, error) {
	var p model.Product
	err := exec.Get(ctx, &p, `SELECT `+productColumns+` FROM products WHERE code = ?`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindByName returns the lowest-coded product with that exact name. Names are
// not unique in the catalog, but sales reference products by name.
func (r *SQLRepository) FindByName(ctx context.Context, exec database.Executor, name string) (*model.Product, error) {
	var p model.Product
	err := exec.Get(ctx, &p, `SELECT `+productColumns+` FROM products WHERE name = ? ORDER BY code LIMIT 1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *SQLRepository) FindAll(ctx context.Context, exec database.Executor, f *dto.ProductFilters) ([]model.Product, error) {
	conditions := []string{}
	args := []any{}

	if f.SearchQuery != "" {
		conditions = append(conditions, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.SearchQuery)+"%")
	}
	if f.RestrictedOnly {
		conditions = append(conditions, "is_restricted_category = ?")
		args = append(args, true)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Whitelisted to keep user input out of ORDER BY.
	orderBy := "name"
	switch f.SortBy {
	case "price":
		orderBy = "price"
	case "stock":
		orderBy = "stock"
	}
	if strings.ToLower(f.SortOrder) == "desc" {
		orderBy += " DESC"
	} else {
		orderBy += " ASC"
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s, code", productColumns, whereClause, orderBy)
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	products := []model.Product{}
	if err := exec.Select(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *SQLRepository) CountLowStock(ctx context.Context, exec database.Executor, limit int) (int, error) {
	var count int
	if err := exec.Get(ctx, &count, `SELECT COUNT(*) FROM products WHERE stock <= ?`, limit); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SQLRepository) DecrementStock(ctx context.Context, exec database.Executor, name string, qty int) (int64, error) {
	return r.moveStock(ctx, exec, `UPDATE products SET stock = stock - ? WHERE name = ?`, name, qty)
}

func (r *SQLRepository) IncrementStock(ctx context.Context, exec database.Executor, name string, qty int) (int64, error) {
	return r.moveStock(ctx, exec, `UPDATE products SET stock = stock + ? WHERE name = ?`, name, qty)
}

func (r *SQLRepository) moveStock(ctx context.Context, exec database.Executor, query, name string, qty int) (int64, error) {
	res, err := exec.Exec(ctx, query, qty, name)
	if err != nil {
		return 0, fmt.Errorf("failed to update stock for %q: %w", name, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}
