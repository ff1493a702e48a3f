package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	"github.com/fekuna/omnipos-till-service/internal/product"
	"github.com/fekuna/omnipos-till-service/internal/sale"
	"github.com/fekuna/omnipos-till-service/internal/sale/dto"
	"github.com/fekuna/omnipos-till-service/internal/till"
)

type saleUseCase struct {
	pool        *database.Pool
	repo        sale.Repository
	tillRepo    till.Repository
	productRepo product.Repository
	opts        dto.Options
	logger      logger.ZapLogger
	now         func() time.Time
}

func NewSaleUseCase(
	pool *database.Pool,
	repo sale.Repository,
	tillRepo till.Repository,
	productRepo product.Repository,
	opts dto.Options,
	log logger.ZapLogger,
) sale.UseCase {
	return &saleUseCase{
		pool:        pool,
		repo:        repo,
		tillRepo:    tillRepo,
		productRepo: productRepo,
		opts:        opts,
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *saleUseCase) Record(ctx context.Context, input *dto.RecordSaleInput) (*model.Sale, error) {
	items, err := validateSale(input)
	if err != nil {
		return nil, err
	}

	s := &model.Sale{
		TillID:        input.TillID,
		CreatedAt:     uc.now(),
		Total:         model.SumSubtotals(items),
		PaymentMethod: input.PaymentMethod,
	}

	err = uc.pool.WithTx(ctx, func(tx *database.Tx) error {
		t, err := uc.tillRepo.LockByID(ctx, tx, input.TillID)
		if err != nil {
			return err
		}
		if t == nil {
			return model.ErrTillNotFound
		}
		if t.State != model.TillOpen {
			return model.ErrTillNotOpen
		}

		s.ID, err = uc.repo.Create(ctx, tx, s)
		if err != nil {
			return err
		}

		for i := range items {
			items[i].SaleID = s.ID
			items[i].ID, err = uc.repo.CreateLineItem(ctx, tx, &items[i])
			if err != nil {
				return err
			}

			if !uc.opts.BoundedStock {
				continue
			}
			rows, err := uc.productRepo.DecrementStock(ctx, tx, items[i].ProductName, items[i].Quantity)
			if err != nil {
				return err
			}
			if rows == 0 {
				return &model.StaleStockError{ProductName: items[i].ProductName}
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("sale rolled back",
			zap.Int64("till_id", input.TillID),
			zap.String("payment_method", string(input.PaymentMethod)),
			zap.Error(err),
		)
		return nil, asTransactionFailure(err)
	}

	s.Items = items
	uc.logger.Info("sale recorded",
		zap.Int64("sale_id", s.ID),
		zap.Int64("till_id", s.TillID),
		zap.Int("lines", len(items)),
		zap.String("total", s.Total.StringFixed(2)),
	)
	return s, nil
}

func (uc *saleUseCase) Reverse(ctx context.Context, lineItemID int64) (*model.Reversal, error) {
	if lineItemID <= 0 {
		return nil, model.NewValidationError("line_item_id", "must be positive")
	}

	rev := &model.Reversal{}
	err := uc.pool.WithTx(ctx, func(tx *database.Tx) error {
		li, err := uc.repo.FindLineItem(ctx, tx, lineItemID)
		if err != nil {
			return err
		}
		if li == nil {
			return model.ErrLineItemNotFound
		}

		// A product renamed or removed since the sale has no row to restock; the line is still returned.
		rows, err := uc.productRepo.IncrementStock(ctx, tx, li.ProductName, li.Quantity)
		if err != nil {
			return err
		}
		rev.StockRestored = rows > 0
		if !rev.StockRestored {
			uc.logger.Warn("no catalog row to restock",
				zap.Int64("line_item_id", lineItemID),
				zap.String("product", li.ProductName),
			)
		}

		rows, err = uc.repo.DeleteLineItem(ctx, tx, lineItemID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return model.ErrLineItemNotFound
		}

		rows, err = uc.repo.DecrementTotal(ctx, tx, li.SaleID, li.Subtotal)
		if err != nil {
			return err
		}
		if rows == 0 {
			return model.ErrSaleNotFound
		}

		s, err := uc.repo.FindByID(ctx, tx, li.SaleID)
		if err != nil {
			return err
		}
		if s == nil {
			return model.ErrSaleNotFound
		}

		rev.LineItem = *li
		rev.SaleTotal = s.Total
		return nil
	})
	if err != nil {
		uc.logger.Error("reversal rolled back", zap.Int64("line_item_id", lineItemID), zap.Error(err))
		return nil, asTransactionFailure(err)
	}

	uc.logger.Info("line item reversed",
		zap.Int64("line_item_id", lineItemID),
		zap.Int64("sale_id", rev.LineItem.SaleID),
		zap.String("product", rev.LineItem.ProductName),
		zap.Int("quantity", rev.LineItem.Quantity),
		zap.Bool("stock_restored", rev.StockRestored),
	)
	return rev, nil
}

func (uc *saleUseCase) Get(ctx context.Context, saleID int64) (*model.Sale, error) {
	var s *model.Sale
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		s, err = uc.repo.FindByID(ctx, c, saleID)
		if err != nil {
			return err
		}
		if s == nil {
			return model.ErrSaleNotFound
		}
		s.Items, err = uc.repo.FindLineItems(ctx, c, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *saleUseCase) LastSaleAt(ctx context.Context) (*time.Time, error) {
	var at *time.Time
	err := uc.pool.WithConn(ctx, func(c *database.Conn) error {
		var err error
		at, err = uc.repo.LastCreatedAt(ctx, c)
		return err
	})
	return at, err
}

// validateSale rejects bad input before any connection is taken and builds the line items.
func validateSale(input *dto.RecordSaleInput) ([]model.SaleLineItem, error) {
	if input == nil {
		return nil, model.NewValidationError("sale", "is required")
	}
	if input.TillID <= 0 {
		return nil, model.NewValidationError("till_id", "must be positive")
	}
	if !input.PaymentMethod.Valid() {
		return nil, model.NewValidationError("payment_method", fmt.Sprintf("unknown method %q", input.PaymentMethod))
	}
	if len(input.Items) == 0 {
		return nil, model.NewValidationError("items", "a sale needs at least one line")
	}

	items := make([]model.SaleLineItem, 0, len(input.Items))
	for i, in := range input.Items {
		field := fmt.Sprintf("items[%d]", i)
		if err := model.ValidateName(field+".product_name", in.ProductName); err != nil {
			return nil, err
		}
		if err := model.ValidatePrice(field+".unit_price", in.UnitPrice); err != nil {
			return nil, err
		}
		if err := model.ValidateQuantity(field+".quantity", in.Quantity); err != nil {
			return nil, err
		}
		items = append(items, model.NewLineItem(strings.TrimSpace(in.ProductName), in.UnitPrice, in.Quantity))
	}
	return items, nil
}

// asTransactionFailure marks errors from inside a rolled-back transaction.
// Pool exhaustion happens before anything began and is returned as is.
func asTransactionFailure(err error) error {
	if errors.Is(err, database.ErrPoolExhausted) || errors.Is(err, model.ErrTransactionFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrTransactionFailure, err)
}
