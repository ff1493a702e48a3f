package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fekuna/omnipos-till-service/config"
	"github.com/fekuna/omnipos-till-service/internal/app"
	"github.com/fekuna/omnipos-till-service/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	// DB points the command at a SQLite file instead of the configured store.
	DB string

	// LoadConfig is swapped in tests.
	LoadConfig func() *config.Config
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{LoadConfig: config.LoadEnv}

	cmd := &cobra.Command{
		Use:   "tillctl",
		Short: "Administer the omnipos till ledger",
		Long:  "Inspect and maintain tills, sales, the shared cart mailbox and the product catalog.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite database file (overrides STORE_DRIVER)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTillCommand(opts))
	cmd.AddCommand(NewSaleCommand(opts))
	cmd.AddCommand(NewMailboxCommand(opts))
	cmd.AddCommand(NewProductCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// open builds the application for one command. Callers must Close it.
func (o *RootOptions) open(ctx context.Context) (*app.App, error) {
	cfg := o.LoadConfig()
	if o.DB != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.SQLitePath = o.DB
	}
	// A command runs one operation at a time.
	cfg.Pool.Prewarm = 1
	// Admin commands never poll the mailbox.
	cfg.Terminal.CartMode = "LOCAL"

	log := logger.NewNop()
	if o.Verbose {
		log = logger.NewZapLogger(&logger.ZapLoggerConfig{
			IsDevelopment:     true,
			Encoding:          "console",
			Level:             "debug",
			DisableStacktrace: true,
		})
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return a, nil
}

// withApp opens the application, runs fn and closes it again.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
