package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-till-service/config"
	"github.com/fekuna/omnipos-till-service/internal/app"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/model"
	prodDTO "github.com/fekuna/omnipos-till-service/internal/product/dto"
	saleDTO "github.com/fekuna/omnipos-till-service/internal/sale/dto"
)

func dbPath(t *testing.T) string {
	t.Helper()
	t.Setenv("TERMINAL_ID", "tillctl-test")
	return filepath.Join(t.TempDir(), "till.db")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decode(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// seed opens the same store the commands use and records data directly.
func seed(t *testing.T, db string, fn func(ctx context.Context, a *app.App)) {
	t.Helper()
	cfg := config.LoadEnv()
	cfg.Store.SQLitePath = db
	cfg.Pool.Prewarm = 1
	a, err := app.New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer a.Close()
	fn(context.Background(), a)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "tillctl", cmd.Use)

	for _, path := range [][]string{
		{"migrate"},
		{"till", "open"}, {"till", "close"}, {"till", "list"}, {"till", "show"}, {"till", "delete"},
		{"sale", "show"}, {"sale", "reverse"},
		{"mailbox", "list"}, {"mailbox", "drain"}, {"mailbox", "clear"},
		{"product", "add"}, {"product", "list"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "yaml", "--db", dbPath(t), "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMigrate(t *testing.T) {
	out, err := execute(t, "--db", dbPath(t), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema at version 1 (sqlite)")
}

func TestProductAddAndList(t *testing.T) {
	db := dbPath(t)

	_, err := execute(t, "--db", db, "product", "add", "--code", "101", "--name", "Vino Tinto", "--price", "5000", "--stock", "6", "--restricted")
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "product", "add", "--code", "102", "--name", "Agua", "--price", "800", "--stock", "40")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "--format", "json", "product", "list", "--restricted")
	require.NoError(t, err)
	resp := decode(t, out)
	assert.Equal(t, "ok", resp.Status)
	products := resp.Data.([]any)
	require.Len(t, products, 1)
	assert.Equal(t, "Vino Tinto", products[0].(map[string]any)["name"])

	out, err = execute(t, "--db", db, "product", "add", "--code", "103", "--name", "Pan", "--price", "abc")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, out)

	out, err = execute(t, "--db", db, "product", "add", "--code", "104", "--name", "Pan", "--price", "-2")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E001]")
}

func TestTillLifecycle(t *testing.T) {
	db := dbPath(t)

	out, err := execute(t, "--db", db, "--format", "json", "till", "open")
	require.NoError(t, err)
	till := decode(t, out).Data.(map[string]any)
	assert.Equal(t, "OPEN", till["state"])
	id := till["id"].(float64)
	require.Equal(t, float64(1), id)

	seed(t, db, func(ctx context.Context, a *app.App) {
		_, err := a.Products.CreateProduct(ctx, &prodDTO.CreateProductInput{Code: 1, Name: "Cerveza", Price: decimal.NewFromInt(1500), Stock: 10, IsRestrictedCategory: true})
		require.NoError(t, err)
		_, err = a.Sales.Record(ctx, &saleDTO.RecordSaleInput{
			TillID:        1,
			PaymentMethod: model.PaymentCard,
			Items:         []saleDTO.LineInput{{ProductName: "Cerveza", UnitPrice: decimal.NewFromInt(1500), Quantity: 2}},
		})
		require.NoError(t, err)
	})

	out, err = execute(t, "--db", db, "till", "close", "1", "--operator", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "till 1 CLOSED by ana")
	assert.Contains(t, out, "3000.00")

	out, err = execute(t, "--db", db, "till", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cerveza")

	out, err = execute(t, "--db", db, "--format", "json", "till", "list")
	require.NoError(t, err)
	assert.Len(t, decode(t, out).Data.([]any), 1)

	_, err = execute(t, "--db", db, "till", "delete", "1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "--db", db, "till", "delete", "1", "--yes")
	require.NoError(t, err)

	out, err = execute(t, "--db", db, "till", "show", "1")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")

	_, err = execute(t, "--db", db, "till", "show", "abc")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSaleShowAndReverse(t *testing.T) {
	db := dbPath(t)

	var saleID, lineID int64
	seed(t, db, func(ctx context.Context, a *app.App) {
		_, err := a.Products.CreateProduct(ctx, &prodDTO.CreateProductInput{Code: 1, Name: "Pan", Price: decimal.NewFromInt(500), Stock: 10})
		require.NoError(t, err)
		tl, err := a.Tills.ObtainOrOpen(ctx)
		require.NoError(t, err)
		s, err := a.Sales.Record(ctx, &saleDTO.RecordSaleInput{
			TillID:        tl.ID,
			PaymentMethod: model.PaymentCash,
			Items: []saleDTO.LineInput{
				{ProductName: "Pan", UnitPrice: decimal.NewFromInt(500), Quantity: 3},
				{ProductName: "Pan", UnitPrice: decimal.NewFromInt(500), Quantity: 1},
			},
		})
		require.NoError(t, err)
		saleID, lineID = s.ID, s.Items[0].ID
	})

	out, err := execute(t, "--db", db, "sale", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2000.00")
	require.Equal(t, int64(1), saleID)

	out, err = execute(t, "--db", db, "sale", "reverse", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "total now 500.00")
	require.Equal(t, int64(1), lineID)

	out, err = execute(t, "--db", db, "--format", "json", "sale", "reverse", "1")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decode(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)

	seed(t, db, func(ctx context.Context, a *app.App) {
		p, err := a.Products.GetProduct(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 9, p.Stock)
	})
}

func TestMailboxCommands(t *testing.T) {
	db := dbPath(t)

	seed(t, db, func(ctx context.Context, a *app.App) {
		_, err := a.Mailbox.Push(ctx, "tablet-1", []model.CartLine{
			{ProductName: "Agua", UnitPrice: decimal.NewFromInt(800), Quantity: 1},
			{ProductName: "Pan", UnitPrice: decimal.NewFromInt(500), Quantity: 2},
		})
		require.NoError(t, err)
	})

	out, err := execute(t, "--db", db, "mailbox", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "tablet-1")
	assert.Contains(t, out, "1800.00")

	out, err = execute(t, "--db", db, "--format", "json", "mailbox", "drain")
	require.NoError(t, err)
	assert.Len(t, decode(t, out).Data.([]any), 2)

	out, err = execute(t, "--db", db, "mailbox", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "0 entries deleted")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ErrCodeRolledBack, errorCode(&model.StaleStockError{ProductName: "x"}))
}
