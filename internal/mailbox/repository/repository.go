package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

const mailboxTable = "shared_cart_mailbox"

type SQLRepository struct{}

func NewSQLRepository() *SQLRepository {
	return &SQLRepository{}
}

func (r *SQLRepository) Insert(ctx context.Context, exec database.Executor, e *model.MailboxEntry) (int64, error) {
	query := `
        INSERT INTO shared_cart_mailbox (product_name, price, quantity, origin_terminal, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	id, err := exec.InsertID(ctx, query, e.ProductName, e.Price, e.Quantity, e.OriginTerminal, e.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mailbox entry %q: %w", e.ProductName, err)
	}
	return id, nil
}

func (r *SQLRepository) FindAll(ctx context.Context, exec database.Executor) ([]model.MailboxEntry, error) {
	entries := []model.MailboxEntry{}
	query := `
        SELECT id, product_name, price, quantity, origin_terminal, created_at
        FROM shared_cart_mailbox
        ORDER BY id
    `
	if err := exec.Select(ctx, &entries, query); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *SQLRepository) DeleteByID(ctx context.Context, exec database.Executor, id int64) (int64, error) {
	return r.delete(ctx, exec, `DELETE FROM shared_cart_mailbox WHERE id = ?`, id)
}

func (r *SQLRepository) DeleteFirstByName(ctx context.Context, exec database.Executor, name string) (int64, error) {
	return r.delete(ctx, exec, exec.Dialect().DeleteFirstMatch(mailboxTable, "product_name"), name)
}

func (r *SQLRepository) DeleteAll(ctx context.Context, exec database.Executor) (int64, error) {
	return r.delete(ctx, exec, `DELETE FROM shared_cart_mailbox`)
}

func (r *SQLRepository) delete(ctx context.Context, exec database.Executor, query string, args ...any) (int64, error) {
	res, err := exec.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from mailbox: %w", err)
	}
	return res.RowsAffected()
}
