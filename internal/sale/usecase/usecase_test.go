package usecase

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/database/databasetest"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	productrepo "github.com/fekuna/omnipos-till-service/internal/product/repository"
	"github.com/fekuna/omnipos-till-service/internal/sale"
	"github.com/fekuna/omnipos-till-service/internal/sale/dto"
	salerepo "github.com/fekuna/omnipos-till-service/internal/sale/repository"
	"github.com/fekuna/omnipos-till-service/internal/till"
	tilldto "github.com/fekuna/omnipos-till-service/internal/till/dto"
	tillrepo "github.com/fekuna/omnipos-till-service/internal/till/repository"
	tilluc "github.com/fekuna/omnipos-till-service/internal/till/usecase"
)

type fixture struct {
	pool  *database.Pool
	db    *sqlx.DB
	sales sale.UseCase
	tills till.UseCase
}

func newFixture(t *testing.T, bounded bool) *fixture {
	t.Helper()
	pool, db := databasetest.NewPool(t)
	log := logger.NewNop()
	tr := tillrepo.NewSQLRepository()

	databasetest.SeedProduct(t, db, model.Product{Code: 1, Name: "Soda", Price: decimal.NewFromInt(1000), Stock: 10})
	databasetest.SeedProduct(t, db, model.Product{Code: 2, Name: "Beer", Price: decimal.NewFromInt(1500), Stock: 5, IsRestrictedCategory: true})

	return &fixture{
		pool:  pool,
		db:    db,
		sales: NewSaleUseCase(pool, salerepo.NewSQLRepository(), tr, productrepo.NewSQLRepository(), dto.Options{BoundedStock: bounded}, log),
		tills: tilluc.NewTillUseCase(pool, tr, tilldto.Options{SeparateRestrictedCategory: true}, log),
	}
}

func (f *fixture) openTill(t *testing.T) int64 {
	t.Helper()
	tl, err := f.tills.ObtainOrOpen(context.Background())
	require.NoError(t, err)
	return tl.ID
}

func soda(qty int) dto.LineInput {
	return dto.LineInput{ProductName: "Soda", UnitPrice: decimal.NewFromInt(1000), Quantity: qty}
}

func TestRecord_SumOfLinesEqualsTotal(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	tillID := f.openTill(t)

	recorded, err := f.sales.Record(ctx, &dto.RecordSaleInput{
		TillID:        tillID,
		PaymentMethod: model.PaymentCard,
		Items: []dto.LineInput{
			soda(2),
			{ProductName: "Beer", UnitPrice: decimal.RequireFromString("1500.50"), Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Positive(t, recorded.ID)
	assert.True(t, recorded.Total.Equal(decimal.RequireFromString("3500.50")))

	stored, err := f.sales.Get(ctx, recorded.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.True(t, model.SumSubtotals(stored.Items).Equal(stored.Total))
	assert.Equal(t, model.PaymentCard, stored.PaymentMethod)

	assert.Equal(t, 8, databasetest.Stock(t, f.db, "Soda"))
	assert.Equal(t, 4, databasetest.Stock(t, f.db, "Beer"))
}

func TestRecord_StaleStockRollsBackEverything(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	tillID := f.openTill(t)

	_, err := f.sales.Record(ctx, &dto.RecordSaleInput{
		TillID:        tillID,
		PaymentMethod: model.PaymentCash,
		Items: []dto.LineInput{
			soda(2),
			{ProductName: "Discontinued", UnitPrice: decimal.NewFromInt(10), Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStaleStockUpdate)
	assert.ErrorIs(t, err, model.ErrTransactionFailure)

	var stale *model.StaleStockError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "Discontinued", stale.ProductName)

	assert.Zero(t, databasetest.Count(t, f.db, "sales"))
	assert.Zero(t, databasetest.Count(t, f.db, "sale_line_items"))
	assert.Equal(t, 10, databasetest.Stock(t, f.db, "Soda"))
}

func TestRecord_UnboundedStockLeavesCatalogAlone(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	tillID := f.openTill(t)

	recorded, err := f.sales.Record(ctx, &dto.RecordSaleInput{
		TillID:        tillID,
		PaymentMethod: model.PaymentCash,
		Items:         []dto.LineInput{soda(3), {ProductName: "Loose Candy", UnitPrice: decimal.NewFromInt(50), Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, databasetest.Stock(t, f.db, "Soda"))

	rev, err := f.sales.Reverse(ctx, recorded.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, rev.StockRestored, "reversal always puts the units back")
	assert.Equal(t, 13, databasetest.Stock(t, f.db, "Soda"))
	assert.True(t, rev.SaleTotal.Equal(decimal.NewFromInt(200)))

	rev, err = f.sales.Reverse(ctx, recorded.Items[1].ID)
	require.NoError(t, err)
	assert.False(t, rev.StockRestored)
	assert.True(t, rev.SaleTotal.IsZero())
}

func TestRecord_RequiresOpenTill(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	tillID := f.openTill(t)
	_, err := f.tills.Close(ctx, tillID, "ana")
	require.NoError(t, err)

	_, err = f.sales.Record(ctx, &dto.RecordSaleInput{TillID: tillID, PaymentMethod: model.PaymentCash, Items: []dto.LineInput{soda(1)}})
	assert.ErrorIs(t, err, model.ErrTillNotOpen)

	_, err = f.sales.Record(ctx, &dto.RecordSaleInput{TillID: 999, PaymentMethod: model.PaymentCash, Items: []dto.LineInput{soda(1)}})
	assert.ErrorIs(t, err, model.ErrTillNotFound)

	assert.Zero(t, databasetest.Count(t, f.db, "sales"))
	assert.Equal(t, 10, databasetest.Stock(t, f.db, "Soda"))
}

func TestRecord_ValidationHappensBeforeStoreAccess(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.pool.Close())
	ctx := context.Background()

	tests := []struct {
		name  string
		input *dto.RecordSaleInput
		field string
	}{
		{"nil input", nil, "sale"},
		{"no till", &dto.RecordSaleInput{PaymentMethod: model.PaymentCash, Items: []dto.LineInput{soda(1)}}, "till_id"},
		{"bad method", &dto.RecordSaleInput{TillID: 1, PaymentMethod: "cheque", Items: []dto.LineInput{soda(1)}}, "payment_method"},
		{"empty cart", &dto.RecordSaleInput{TillID: 1, PaymentMethod: model.PaymentCash}, "items"},
		{"blank name", &dto.RecordSaleInput{TillID: 1, PaymentMethod: model.PaymentCash, Items: []dto.LineInput{{ProductName: " ", UnitPrice: decimal.NewFromInt(1), Quantity: 1}}}, "items[0].product_name"},
		{"zero price", &dto.RecordSaleInput{TillID: 1, PaymentMethod: model.PaymentCash, Items: []dto.LineInput{{ProductName: "Soda", UnitPrice: decimal.Zero, Quantity: 1}}}, "items[0].unit_price"},
		{"zero qty", &dto.RecordSaleInput{TillID: 1, PaymentMethod: model.PaymentCash, Items: []dto.LineInput{soda(0)}}, "items[0].quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sales.Record(ctx, tt.input)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotErrorIs(t, err, database.ErrPoolClosed)
		})
	}
}

func TestReverse_RestoresStockAndTotal(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	tillID := f.openTill(t)

	recorded, err := f.sales.Record(ctx, &dto.RecordSaleInput{
		TillID:        tillID,
		PaymentMethod: model.PaymentCash,
		Items:         []dto.LineInput{soda(3), {ProductName: "Beer", UnitPrice: decimal.NewFromInt(1500), Quantity: 1}},
	})
	require.NoError(t, err)
	stockBefore := databasetest.Stock(t, f.db, "Soda")
	line := recorded.Items[0]

	rev, err := f.sales.Reverse(ctx, line.ID)
	require.NoError(t, err)
	assert.True(t, rev.StockRestored)
	assert.Equal(t, stockBefore+line.Quantity, databasetest.Stock(t, f.db, "Soda"))
	assert.True(t, rev.SaleTotal.Equal(recorded.Total.Sub(line.Subtotal)))

	// a second reversal of the same line is a no-op failure
	_, err = f.sales.Reverse(ctx, line.ID)
	assert.ErrorIs(t, err, model.ErrLineItemNotFound)
	assert.Equal(t, stockBefore+line.Quantity, databasetest.Stock(t, f.db, "Soda"))

	stored, err := f.sales.Get(ctx, recorded.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(1500)))
}

func TestReverse_RenamedProductStillReturnsLine(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	tillID := f.openTill(t)

	recorded, err := f.sales.Record(ctx, &dto.RecordSaleInput{TillID: tillID, PaymentMethod: model.PaymentCash, Items: []dto.LineInput{soda(2)}})
	require.NoError(t, err)

	_, err = f.db.Exec(`UPDATE products SET name = 'Soda Zero' WHERE name = 'Soda'`)
	require.NoError(t, err)

	rev, err := f.sales.Reverse(ctx, recorded.Items[0].ID)
	require.NoError(t, err)
	assert.False(t, rev.StockRestored)
	assert.True(t, rev.SaleTotal.IsZero())
	assert.Equal(t, 8, databasetest.Stock(t, f.db, "Soda Zero"))

	stored, err := f.sales.Get(ctx, recorded.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestReverse_Validation(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.sales.Reverse(context.Background(), 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestScenario_SellReverseClose(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	tillID := f.openTill(t)

	recorded, err := f.sales.Record(ctx, &dto.RecordSaleInput{TillID: tillID, PaymentMethod: model.PaymentCash, Items: []dto.LineInput{soda(2)}})
	require.NoError(t, err)

	b := f.tills.Reconcile(ctx, tillID)
	assert.True(t, b.GrandTotal.Equal(decimal.NewFromInt(2000)))
	assert.True(t, b.NetCash.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, 8, databasetest.Stock(t, f.db, "Soda"))

	rev, err := f.sales.Reverse(ctx, recorded.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 10, databasetest.Stock(t, f.db, "Soda"))
	assert.True(t, rev.SaleTotal.IsZero())

	closed, err := f.tills.Close(ctx, tillID, "ana")
	require.NoError(t, err)
	assert.True(t, closed.GrandTotal.IsZero())
	assert.Equal(t, model.TillClosed, closed.State)
}

func TestLastSaleAt(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	at, err := f.sales.LastSaleAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, at)

	tillID := f.openTill(t)
	_, err = f.sales.Record(ctx, &dto.RecordSaleInput{TillID: tillID, PaymentMethod: model.PaymentQR, Items: []dto.LineInput{soda(1)}})
	require.NoError(t, err)

	at, err = f.sales.LastSaleAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.False(t, at.IsZero())
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.sales.Get(context.Background(), 12345)
	assert.ErrorIs(t, err, model.ErrSaleNotFound)
}
