package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fekuna/omnipos-till-service/internal/app"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				driver := a.Pool.Dialect().Name()
				f.VerboseLog("migrations applied on %s", driver)
				return f.Success(map[string]any{"driver": driver, "version": a.SchemaVersion}, func(w io.Writer) {
					fmt.Fprintf(w, "schema at version %d (%s)\n", a.SchemaVersion, driver)
				})
			})
		},
	}
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s %q", what, arg))
	}
	return id, nil
}
