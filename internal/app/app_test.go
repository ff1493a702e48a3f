package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-till-service/config"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	prodDTO "github.com/fekuna/omnipos-till-service/internal/product/dto"
	"github.com/fekuna/omnipos-till-service/internal/rpc"
	"github.com/fekuna/omnipos-till-service/internal/rpc/rpctest"
	termH "github.com/fekuna/omnipos-till-service/internal/terminal/handler"
	tillH "github.com/fekuna/omnipos-till-service/internal/till/handler"
)

func testConfig(t *testing.T) *config.Config {
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "till.db"))
	t.Setenv("POOL_MAX_CONNECTIONS", "3")
	t.Setenv("POOL_PREWARM", "1")
	t.Setenv("TERMINAL_ID", "caja-1")
	return config.LoadEnv()
}

func TestNew_WiresEverything(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, "caja-1", a.Terminal.ID())
	assert.Equal(t, model.CartLocal, a.Terminal.Mode())
	assert.Equal(t, 1, a.Pool.Stats().Live)

	_, err = a.Products.CreateProduct(ctx, &prodDTO.CreateProductInput{
		Code: 10, Name: "Pan", Price: decimal.NewFromInt(500), Stock: 5,
	})
	require.NoError(t, err)

	require.NoError(t, a.Terminal.AddToCart(ctx, model.CartLine{ProductName: "Pan", UnitPrice: decimal.NewFromInt(500), Quantity: 2}))
	s, err := a.Terminal.Checkout(ctx, model.PaymentCash)
	require.NoError(t, err)
	assert.True(t, s.Total.Equal(decimal.NewFromInt(1000)))

	p, err := a.Products.GetProduct(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestNew_MigrationIsRepeatable(t *testing.T) {
	cfg := testConfig(t)
	for i := 0; i < 2; i++ {
		a, err := New(context.Background(), cfg, logger.NewNop())
		require.NoError(t, err)
		require.NoError(t, a.Close())
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Terminal.CartMode = "BROADCAST"
	_, err := New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestRegister_ServesTillService(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	conn := rpctest.Dial(t, func(s *grpc.Server) { a.Register(s) })
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), rpc.FullMethod(tillH.ServiceName, "OpenTill"), &emptypb.Empty{}, out))
	assert.Equal(t, "OPEN", rpc.FieldsOf(out).String("state"))

	cart := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), rpc.FullMethod(termH.ServiceName, "GetCart"), &emptypb.Empty{}, cart))
	assert.Equal(t, "caja-1", rpc.FieldsOf(cart).String("terminal_id"))
	assert.Len(t, ServiceNames(), 5)
}
