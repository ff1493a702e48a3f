package handler

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/database/databasetest"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	productrepo "github.com/fekuna/omnipos-till-service/internal/product/repository"
	"github.com/fekuna/omnipos-till-service/internal/rpc"
	"github.com/fekuna/omnipos-till-service/internal/rpc/rpctest"
	"github.com/fekuna/omnipos-till-service/internal/sale/dto"
	salerepo "github.com/fekuna/omnipos-till-service/internal/sale/repository"
	saleuc "github.com/fekuna/omnipos-till-service/internal/sale/usecase"
	tilldto "github.com/fekuna/omnipos-till-service/internal/till/dto"
	tillrepo "github.com/fekuna/omnipos-till-service/internal/till/repository"
	tilluc "github.com/fekuna/omnipos-till-service/internal/till/usecase"
)

type fixture struct {
	conn   *grpc.ClientConn
	db     *sqlx.DB
	tillID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool, db := databasetest.NewPool(t)
	log := logger.NewNop()
	tr := tillrepo.NewSQLRepository()

	databasetest.SeedProduct(t, db, model.Product{Code: 1, Name: "Soda", Price: decimal.NewFromInt(1000), Stock: 10})

	tills := tilluc.NewTillUseCase(pool, tr, tilldto.Options{SeparateRestrictedCategory: true}, log)
	opened, err := tills.ObtainOrOpen(context.Background())
	require.NoError(t, err)

	sales := saleuc.NewSaleUseCase(pool, salerepo.NewSQLRepository(), tr, productrepo.NewSQLRepository(), dto.Options{BoundedStock: true}, log)
	h := NewSaleHandler(sales, log)
	conn := rpctest.Dial(t, func(s *grpc.Server) { RegisterSaleServiceServer(s, h) })
	return &fixture{conn: conn, db: db, tillID: opened.ID}
}

func (f *fixture) call(ctx context.Context, method string, in, out any) error {
	return f.conn.Invoke(ctx, rpc.FullMethod(ServiceName, method), in, out)
}

func saleRequest(t *testing.T, tillID int64, method string, items ...map[string]any) *structpb.Struct {
	t.Helper()
	list := make([]any, len(items))
	for i, it := range items {
		list[i] = it
	}
	s, err := structpb.NewStruct(map[string]any{
		"till_id":        float64(tillID),
		"payment_method": method,
		"items":          list,
	})
	require.NoError(t, err)
	return s
}

func TestSaleService_RecordAndReverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.call(ctx, "LastSaleAt", &emptypb.Empty{}, new(timestamppb.Timestamp))
	assert.Equal(t, codes.NotFound, status.Code(err))

	recorded := new(structpb.Struct)
	require.NoError(t, f.call(ctx, "RecordSale", saleRequest(t, f.tillID, "CASH",
		map[string]any{"product_name": "Soda", "unit_price": "1000", "quantity": float64(2)},
		map[string]any{"product_name": "Soda", "unit_price": "1000", "quantity": float64(1)},
	), recorded))

	sale := rpc.FieldsOf(recorded)
	total, err := sale.Decimal("total")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "cash", sale.String("payment_method"))
	items := sale.List("items")
	require.Len(t, items, 2)
	assert.Equal(t, 7, databasetest.Stock(t, f.db, "Soda"))

	lineID, err := items[1].Int64("id")
	require.NoError(t, err)

	reversal := new(structpb.Struct)
	require.NoError(t, f.call(ctx, "ReverseLineItem", wrapperspb.Int64(lineID), reversal))
	saleTotal, err := rpc.FieldsOf(reversal).Decimal("sale_total")
	require.NoError(t, err)
	assert.True(t, saleTotal.Equal(decimal.NewFromInt(2000)))
	assert.True(t, rpc.FieldsOf(reversal).Bool("stock_restored"))
	assert.Equal(t, 8, databasetest.Stock(t, f.db, "Soda"))

	err = f.call(ctx, "ReverseLineItem", wrapperspb.Int64(lineID), new(structpb.Struct))
	assert.Equal(t, codes.NotFound, status.Code(err))

	saleID, _ := sale.Int64("id")
	got := new(structpb.Struct)
	require.NoError(t, f.call(ctx, "GetSale", wrapperspb.Int64(saleID), got))
	assert.Len(t, rpc.FieldsOf(got).List("items"), 1)

	at := new(timestamppb.Timestamp)
	require.NoError(t, f.call(ctx, "LastSaleAt", &emptypb.Empty{}, at))
	assert.False(t, at.AsTime().IsZero())
}

func TestSaleService_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.call(ctx, "RecordSale", saleRequest(t, f.tillID, "cheque",
		map[string]any{"product_name": "Soda", "unit_price": "1000", "quantity": float64(1)},
	), new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = f.call(ctx, "RecordSale", saleRequest(t, f.tillID, "cash"), new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err), "a sale needs lines")

	err = f.call(ctx, "RecordSale", saleRequest(t, f.tillID, "card",
		map[string]any{"product_name": "Ghost", "unit_price": "5", "quantity": float64(1)},
	), new(structpb.Struct))
	assert.Equal(t, codes.Aborted, status.Code(err), "stale stock update")
	assert.Equal(t, 0, databasetest.Count(t, f.db, "sales"))

	err = f.call(ctx, "RecordSale", saleRequest(t, 999, "cash",
		map[string]any{"product_name": "Soda", "unit_price": "1000", "quantity": float64(1)},
	), new(structpb.Struct))
	assert.Equal(t, codes.NotFound, status.Code(err))

	err = f.call(ctx, "GetSale", wrapperspb.Int64(999), new(structpb.Struct))
	assert.Equal(t, codes.NotFound, status.Code(err))
}
