// Package app assembles the till service from configuration. Both the gRPC
// server and the admin CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/fekuna/omnipos-till-service/config"
	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/logger"
	"github.com/fekuna/omnipos-till-service/internal/mailbox"
	mbH "github.com/fekuna/omnipos-till-service/internal/mailbox/handler"
	mbRepoPkg "github.com/fekuna/omnipos-till-service/internal/mailbox/repository"
	mbUCPkg "github.com/fekuna/omnipos-till-service/internal/mailbox/usecase"
	"github.com/fekuna/omnipos-till-service/internal/product"
	prodH "github.com/fekuna/omnipos-till-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-till-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-till-service/internal/product/usecase"
	"github.com/fekuna/omnipos-till-service/internal/sale"
	saleDTO "github.com/fekuna/omnipos-till-service/internal/sale/dto"
	saleH "github.com/fekuna/omnipos-till-service/internal/sale/handler"
	saleRepoPkg "github.com/fekuna/omnipos-till-service/internal/sale/repository"
	saleUCPkg "github.com/fekuna/omnipos-till-service/internal/sale/usecase"
	"github.com/fekuna/omnipos-till-service/internal/terminal"
	termH "github.com/fekuna/omnipos-till-service/internal/terminal/handler"
	"github.com/fekuna/omnipos-till-service/internal/till"
	tillDTO "github.com/fekuna/omnipos-till-service/internal/till/dto"
	tillH "github.com/fekuna/omnipos-till-service/internal/till/handler"
	tillRepoPkg "github.com/fekuna/omnipos-till-service/internal/till/repository"
	tillUCPkg "github.com/fekuna/omnipos-till-service/internal/till/usecase"
)

type App struct {
	DB            *sqlx.DB
	SchemaVersion int64
	Pool          *database.Pool
	Products      product.UseCase
	Tills         till.UseCase
	Sales         sale.UseCase
	Mailbox       mailbox.UseCase
	Terminal      *terminal.Terminal

	logger logger.ZapLogger
}

// New opens the store, applies the schema and builds every usecase.
func New(ctx context.Context, cfg *config.Config, log logger.ZapLogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, dialect, err := database.Open(ctx, cfg.DatabaseConfig())
	if err != nil {
		return nil, err
	}
	log.Info("Connected to store", zap.String("driver", dialect.Name()))

	version, err := database.Migrate(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Store schema up to date", zap.Int64("version", version))

	pool, err := database.NewPool(ctx, db, dialect, cfg.PoolConfig(), log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	prodRepo := prodRepoPkg.NewSQLRepository()
	tillRepo := tillRepoPkg.NewSQLRepository()
	saleRepo := saleRepoPkg.NewSQLRepository()
	mbRepo := mbRepoPkg.NewSQLRepository()

	a := &App{
		DB:            db,
		SchemaVersion: version,
		Pool:          pool,
		Products:      prodUCPkg.NewProductUseCase(pool, prodRepo, log),
		Tills: tillUCPkg.NewTillUseCase(pool, tillRepo, tillDTO.Options{
			SeparateRestrictedCategory: cfg.Terminal.SeparateRestrictedCategory,
		}, log),
		Mailbox: mbUCPkg.NewMailboxUseCase(pool, mbRepo, log),
		logger:  log,
	}
	a.Sales = saleUCPkg.NewSaleUseCase(pool, saleRepo, tillRepo, prodRepo, saleDTO.Options{
		BoundedStock: cfg.Terminal.BoundedStockMode,
	}, log)

	a.Terminal, err = terminal.New(terminal.Config{
		ID:           cfg.Terminal.ID,
		Mode:         cfg.CartMode(),
		PollInterval: cfg.Terminal.MailboxPollInterval,
	}, a.Tills, a.Sales, a.Mailbox, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Register exposes the ledger services and this terminal's cart on s.
func (a *App) Register(s grpc.ServiceRegistrar) {
	tillH.RegisterTillServiceServer(s, tillH.NewTillHandler(a.Tills, a.logger))
	saleH.RegisterSaleServiceServer(s, saleH.NewSaleHandler(a.Sales, a.logger))
	mbH.RegisterMailboxServiceServer(s, mbH.NewMailboxHandler(a.Mailbox, a.logger))
	prodH.RegisterProductServiceServer(s, prodH.NewProductHandler(a.Products, a.logger))
	termH.RegisterTerminalServiceServer(s, termH.NewTerminalHandler(a.Terminal, a.logger))
}

// ServiceNames lists the registered services, for health reporting.
func ServiceNames() []string {
	return []string{tillH.ServiceName, saleH.ServiceName, mbH.ServiceName, prodH.ServiceName, termH.ServiceName}
}

func (a *App) Close() error {
	return errors.Join(a.Pool.Close(), a.DB.Close())
}
