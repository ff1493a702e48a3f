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

const tillColumns = `id, opened_at, closed_at, state, closing_operator,
        grand_total, net_cash, net_digital, restricted_cash, restricted_digital`

type SQLRepository struct{}

func NewSQLRepository() *SQLRepository {
	return &SQLRepository{}
}

func (r *SQLRepository) Create(ctx context.Context, exec database.Executor, openedAt time.Time) (int64, error) {
	id, err := exec.InsertID(ctx, `INSERT INTO tills (opened_at, state) VALUES (?, ?)`, openedAt, model.TillOpen)
	if err != nil {
		return 0, fmt.Errorf("failed to open till: %w", err)
	}
	return id, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, exec database.Executor, id int64) (*model.Till, error) {
	var t model.Till
	err := exec.Get(ctx, &t, `SELECT `+tillColumns+` FROM tills WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// LockByID reads a till and locks its row until exec's transaction ends.
func (r *SQLRepository) LockByID(ctx context.Context, exec database.Executor, id int64) (*model.Till, error) {
	var t model.Till
	err := exec.Get(ctx, &t, `SELECT `+tillColumns+` FROM tills WHERE id = ?`+exec.Dialect().ForUpdate(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *SQLRepository) FindLatestOpen(ctx context.Context, exec database.Executor) (*model.Till, error) {
	var t model.Till
	err := exec.Get(ctx, &t, `SELECT `+tillColumns+` FROM tills WHERE state = ? ORDER BY id DESC LIMIT 1`, model.TillOpen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *SQLRepository) FindAll(ctx context.Context, exec database.Executor, limit int) ([]model.Till, error) {
	query := `SELECT ` + tillColumns + ` FROM tills ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	tills := []model.Till{}
	if err := exec.Select(ctx, &tills, query); err != nil {
		return nil, err
	}
	return tills, nil
}

func (r *SQLRepository) UpdateClosed(ctx context.Context, exec database.Executor, t *model.Till) error {
	query := `
        UPDATE tills
        SET closed_at = ?,
            state = ?,
            closing_operator = ?,
            grand_total = ?,
            net_cash = ?,
            net_digital = ?,
            restricted_cash = ?,
            restricted_digital = ?
        WHERE id = ?
    `
	res, err := exec.Exec(ctx, query,
		t.ClosedAt, t.State, t.ClosingOperator,
		t.GrandTotal, t.NetCash, t.NetDigital, t.RestrictedCash, t.RestrictedDigital,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to close till %d: %w", t.ID, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return model.ErrTillNotFound
	}
	return nil
}

func (r *SQLRepository) DeleteCascade(ctx context.Context, exec database.Executor, id int64) error {
	steps := []struct {
		what  string
		query string
	}{
		{"line items", `DELETE FROM sale_line_items WHERE sale_id IN (SELECT id FROM sales WHERE till_id = ?)`},
		{"sales", `DELETE FROM sales WHERE till_id = ?`},
		{"expenses", `DELETE FROM till_expenses WHERE till_id = ?`},
		{"till", `DELETE FROM tills WHERE id = ?`},
	}
	for _, s := range steps {
		if _, err := exec.Exec(ctx, s.query, id); err != nil {
			return fmt.Errorf("failed to delete %s of till %d: %w", s.what, id, err)
		}
	}
	return nil
}

func (r *SQLRepository) GrossByMethod(ctx context.Context, exec database.Executor, tillID int64) ([]model.MethodTotal, error) {
	query := `
        SELECT payment_method, COALESCE(SUM(total), 0) AS amount
        FROM sales
        WHERE till_id = ?
        GROUP BY payment_method
    `
	return r.methodTotals(ctx, exec, query, tillID)
}

// RestrictedByMethod sums restricted-category line items. Products are matched
// by name through a subquery so a name shared by several catalog rows is counted once.
func (r *SQLRepository) RestrictedByMethod(ctx context.Context, exec database.Executor, tillID int64) ([]model.MethodTotal, error) {
	query := `
        SELECT s.payment_method, COALESCE(SUM(li.subtotal), 0) AS amount
        FROM sale_line_items li
        JOIN sales s ON s.id = li.sale_id
        WHERE s.till_id = ?
          AND li.product_name IN (SELECT name FROM products WHERE is_restricted_category = ?)
        GROUP BY s.payment_method
    `
	return r.methodTotals(ctx, exec, query, tillID, true)
}

func (r *SQLRepository) methodTotals(ctx context.Context, exec database.Executor, query string, args ...any) ([]model.MethodTotal, error) {
	rows := []model.MethodTotal{}
	if err := exec.Select(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	// Embedded stores keep NUMERIC as floating point; sums are normalised to cents.
	for i := range rows {
		rows[i].Amount = rows[i].Amount.Round(2)
	}
	return rows, nil
}

func (r *SQLRepository) SaleDetails(ctx context.Context, exec database.Executor, tillID int64) ([]model.SaleLineDetail, error) {
	query := `
        SELECT li.id AS line_item_id, s.id AS sale_id, s.created_at, li.product_name,
               li.unit_price, li.quantity, li.subtotal, s.payment_method
        FROM sale_line_items li
        JOIN sales s ON s.id = li.sale_id
        WHERE s.till_id = ?
        ORDER BY s.id DESC, li.id
    `
	details := []model.SaleLineDetail{}
	if err := exec.Select(ctx, &details, query, tillID); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *SQLRepository) CreateExpense(ctx context.Context, exec database.Executor, e *model.Expense) (int64, error) {
	query := `
        INSERT INTO till_expenses (till_id, supplier, description, amount, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	id, err := exec.InsertID(ctx, query, e.TillID, e.Supplier, e.Description, e.Amount, e.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to record expense: %w", err)
	}
	return id, nil
}

func (r *SQLRepository) FindExpenses(ctx context.Context, exec database.Executor, tillID int64) ([]model.Expense, error) {
	expenses := []model.Expense{}
	query := `
        SELECT id, till_id, supplier, description, amount, created_at
        FROM till_expenses
        WHERE till_id = ?
        ORDER BY id DESC
    `
	if err := exec.Select(ctx, &expenses, query, tillID); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *SQLRepository) DeleteExpense(ctx context.Context, exec database.Executor, id int64) (int64, error) {
	res, err := exec.Exec(ctx, `DELETE FROM till_expenses WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expense %d: %w", id, err)
	}
	return res.RowsAffected()
}

func (r *SQLRepository) SumExpenses(ctx context.Context, exec database.Executor, tillID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := exec.Get(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM till_expenses WHERE till_id = ?`, tillID)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Round(2), nil
}
