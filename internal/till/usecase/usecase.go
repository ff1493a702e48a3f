package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/till"
	"github.com/fekuna/omnipos-till-service/internal/till/dto"
)

// DefaultOperator is recorded when a till is closed without naming who closed it.
const DefaultOperator = "system"

type tillUseCase struct {
	pool   *database.Pool
	repo   till.Repository
	opts   dto.Options
	logger logger.ZapLogger
	now    func() time.Time
}

func NewTillUseCase(pool *database.Pool, repo till.Repository, opts dto.Options, log logger.ZapLogger) till.UseCase {
	return &tillUseCase{
		pool:   pool,
		repo:   repo,
		opts:   opts,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *tillUseCase) ObtainOrOpen(ctx context.Context) (*model.Till, error) {
	var t *model.Till
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		t, err = uc.repo.FindLatestOpen(ctx, c)
		if err != nil || t != nil {
			return err
		}

		openedAt := uc.now()
		id, createErr := uc.repo.Create(ctx, c, openedAt)
		if createErr != nil {
			// Another terminal may have opened a till between our read and insert;
			// the single-open index rejects ours, so take theirs.
			t, err = uc.repo.FindLatestOpen(ctx, c)
			if err != nil {
				return err
			}
			if t == nil {
				return createErr
			}
			return nil
		}

		uc.logger.Info("till opened", zap.Int64("till_id", id))
		t = &model.Till{ID: id, OpenedAt: openedAt, State: model.TillOpen}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to obtain open till: %w", err)
	}
	return t, nil
}

func (uc *tillUseCase) Current(ctx context.Context) (*model.Till, error) {
	var t *model.Till
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		t, err = uc.repo.FindLatestOpen(ctx, c)
		return err
	})
	return t, err
}

func (uc *tillUseCase) GetTill(ctx context.Context, id int64) (*model.TillSummary, error) {
	var summary *model.TillSummary
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		t, err := uc.repo.FindByID(ctx, c, id)
		if err != nil {
			return err
		}
		if t == nil {
			return model.ErrTillNotFound
		}
		s := uc.summarize(ctx, c, t)
		summary = &s
		return nil
	})
	return summary, err
}

// Reconcile never fails: a read error is logged and reported as a degraded zero breakdown.
func (uc *tillUseCase) Reconcile(ctx context.Context, tillID int64) model.Breakdown {
	var b model.Breakdown
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		b, err = uc.reconcile(ctx, c, tillID)
		return err
	})
	if err != nil {
		uc.logger.Error("reconciliation read failed", zap.Int64("till_id", tillID), zap.Error(err))
		return degraded()
	}
	return b
}

func (uc *tillUseCase) Close(ctx context.Context, tillID int64, operator string) (*model.Till, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		operator = DefaultOperator
	}

	// The till row stays locked from the read to the update, so no sale can land
	// between reconciliation and the stored totals.
	var closed *model.Till
	err := uc.pool.WithTx(ctx, func(tx *database.Tx) error {
		t, err := uc.repo.LockByID(ctx, tx, tillID)
		if err != nil {
			return err
		}
		if t == nil {
			return model.ErrTillNotFound
		}
		if !t.State.CanTransitionTo(model.TillClosed) {
			return fmt.Errorf("till %d cannot move from %s to %s", tillID, t.State, model.TillClosed)
		}

		b, err := uc.reconcile(ctx, tx, tillID)
		if err != nil {
			// Writing zeros would silently erase the day's takings.
			return fmt.Errorf("%w: %v", model.ErrReconciliationRead, err)
		}

		closedAt := uc.now()
		t.ClosedAt = &closedAt
		t.State = model.TillClosed
		t.ClosingOperator = &operator
		t.GrandTotal = b.GrandTotal
		t.NetCash = b.NetCash
		t.NetDigital = b.NetDigital
		t.RestrictedCash = b.RestrictedCash
		t.RestrictedDigital = b.RestrictedDigital

		if err := uc.repo.UpdateClosed(ctx, tx, t); err != nil {
			return err
		}
		closed = t
		return nil
	})
	if err != nil {
		uc.logger.Error("failed to close till", zap.Int64("till_id", tillID), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("till closed",
		zap.Int64("till_id", tillID),
		zap.String("operator", operator),
		zap.String("grand_total", closed.GrandTotal.StringFixed(2)),
	)
	return closed, nil
}

func (uc *tillUseCase) CascadeDelete(ctx context.Context, tillID int64) error {
	err := uc.pool.WithTx(ctx, func(tx *database.Tx) error {
		t, err := uc.repo.FindByID(ctx, tx, tillID)
		if err != nil {
			return err
		}
		if t == nil {
			return model.ErrTillNotFound
		}
		return uc.repo.DeleteCascade(ctx, tx, tillID)
	})
	if err != nil {
		uc.logger.Error("cascade delete rolled back", zap.Int64("till_id", tillID), zap.Error(err))
		return err
	}
	uc.logger.Warn("till deleted with all its sales", zap.Int64("till_id", tillID))
	return nil
}

func (uc *tillUseCase) List(ctx context.Context, limit int) ([]model.TillSummary, error) {
	var summaries []model.TillSummary
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		tills, err := uc.repo.FindAll(ctx, c, limit)
		if err != nil {
			return err
		}
		summaries = make([]model.TillSummary, 0, len(tills))
		for i := range tills {
			summaries = append(summaries, uc.summarize(ctx, c, &tills[i]))
		}
		return nil
	})
	return summaries, err
}

func (uc *tillUseCase) SaleDetails(ctx context.Context, tillID int64) ([]model.SaleLineDetail, error) {
	var details []model.SaleLineDetail
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		details, err = uc.repo.SaleDetails(ctx, c, tillID)
		return err
	})
	return details, err
}

func (uc *tillUseCase) RecordExpense(ctx context.Context, input *dto.RecordExpenseInput) (*model.Expense, error) {
	if input.TillID <= 0 {
		return nil, model.NewValidationError("till_id", "must be positive")
	}
	if err := model.ValidatePrice("amount", input.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Supplier) != "" {
		if err := model.ValidateName("supplier", input.Supplier); err != nil {
			return nil, err
		}
	}

	e := &model.Expense{
		TillID:      input.TillID,
		Supplier:    strings.TrimSpace(input.Supplier),
		Description: strings.TrimSpace(input.Description),
		Amount:      input.Amount,
		CreatedAt:   uc.now(),
	}
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		t, err := uc.repo.FindByID(ctx, c, input.TillID)
		if err != nil {
			return err
		}
		if t == nil {
			return model.ErrTillNotFound
		}
		if t.State != model.TillOpen {
			return model.ErrTillNotOpen
		}
		e.ID, err = uc.repo.CreateExpense(ctx, c, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (uc *tillUseCase) ListExpenses(ctx context.Context, tillID int64) ([]model.Expense, error) {
	var expenses []model.Expense
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		expenses, err = uc.repo.FindExpenses(ctx, c, tillID)
		return err
	})
	return expenses, err
}

func (uc *tillUseCase) DeleteExpense(ctx context.Context, id int64) error {
	return uc.pool.WithConn(ctx, func(c *database.Conn) error {
		rows, err := uc.repo.DeleteExpense(ctx, c, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return model.ErrExpenseNotFound
		}
		return nil
	})
}

func (uc *tillUseCase) ExpenseTotal(ctx context.Context, tillID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		total, err = uc.repo.SumExpenses(ctx, c, tillID)
		return err
	})
	return total, err
}

func (uc *tillUseCase) reconcile(ctx context.Context, exec database.Executor, tillID int64) (model.Breakdown, error) {
	gross, err := uc.repo.GrossByMethod(ctx, exec, tillID)
	if err != nil {
		return model.Breakdown{}, fmt.Errorf("gross totals: %w", err)
	}
	restricted, err := uc.repo.RestrictedByMethod(ctx, exec, tillID)
	if err != nil {
		return model.Breakdown{}, fmt.Errorf("restricted totals: %w", err)
	}
	return model.ComputeBreakdown(
		model.SplitTotals(gross),
		model.SplitTotals(restricted),
		uc.opts.SeparateRestrictedCategory,
	), nil
}

// summarize uses the stored totals of a closed till and a live reconciliation for an open one.
func (uc *tillUseCase) summarize(ctx context.Context, exec database.Executor, t *model.Till) model.TillSummary {
	if t.State == model.TillClosed {
		return model.TillSummary{Till: *t, Breakdown: t.StoredBreakdown()}
	}
	b, err := uc.reconcile(ctx, exec, t.ID)
	if err != nil {
		uc.logger.Error("reconciliation read failed", zap.Int64("till_id", t.ID), zap.Error(err))
		b = degraded()
	}
	return model.TillSummary{Till: *t, Breakdown: b}
}

func degraded() model.Breakdown {
	return model.Breakdown{
		GrandTotal:        decimal.Zero,
		NetCash:           decimal.Zero,
		NetDigital:        decimal.Zero,
		RestrictedCash:    decimal.Zero,
		RestrictedDigital: decimal.Zero,
		Degraded:          true,
	}
}
