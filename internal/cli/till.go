package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fekuna/omnipos-till-service/internal/app"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

func NewTillCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "till",
		Short: "Open, close and inspect tills",
	}
	cmd.AddCommand(newTillOpenCommand(rootOpts))
	cmd.AddCommand(newTillCloseCommand(rootOpts))
	cmd.AddCommand(newTillListCommand(rootOpts))
	cmd.AddCommand(newTillShowCommand(rootOpts))
	cmd.AddCommand(newTillDeleteCommand(rootOpts))
	return cmd
}

func newTillOpenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Return the open till, opening one if none is open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.Tills.ObtainOrOpen(ctx)
				if err != nil {
					return f.Fail("failed to open till", err)
				}
				return f.Success(t, func(w io.Writer) {
					fmt.Fprintf(w, "till %d %s since %s\n", t.ID, t.State, t.OpenedAt.Format("2006-01-02 15:04:05"))
				})
			})
		},
	}
}

func newTillCloseCommand(rootOpts *RootOptions) *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "close <till-id>",
		Short: "Close a till and store its reconciled totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "till id")
			if err != nil {
				return err
			}
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.Tills.Close(ctx, id, operator)
				if err != nil {
					return f.Fail("failed to close till", err)
				}
				return f.Success(t, func(w io.Writer) {
					fmt.Fprintf(w, "till %d CLOSED by %s\n", t.ID, deref(t.ClosingOperator))
					writeBreakdown(w, t.StoredBreakdown())
				})
			})
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "who is closing the till")
	return cmd
}

func newTillListCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tills, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				tills, err := a.Tills.List(ctx, limit)
				if err != nil {
					return f.Fail("failed to list tills", err)
				}
				return f.Success(tills, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tSTATE\tOPENED\tGRAND TOTAL")
					for _, s := range tills {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Till.ID, s.Till.State,
							s.Till.OpenedAt.Format("2006-01-02 15:04"), s.Breakdown.GrandTotal.StringFixed(2))
					}
				})
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum tills to list (0 for all)")
	return cmd
}

func newTillShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <till-id>",
		Short: "Show a till with its totals, sold lines and expenses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "till id")
			if err != nil {
				return err
			}
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Tills.GetTill(ctx, id)
				if err != nil {
					return f.Fail("failed to load till", err)
				}
				lines, err := a.Tills.SaleDetails(ctx, id)
				if err != nil {
					return f.Fail("failed to load sales", err)
				}
				expenses, err := a.Tills.ListExpenses(ctx, id)
				if err != nil {
					return f.Fail("failed to load expenses", err)
				}

				data := map[string]any{"till": summary.Till, "breakdown": summary.Breakdown, "lines": lines, "expenses": expenses}
				return f.Success(data, func(w io.Writer) {
					fmt.Fprintf(w, "till %d %s\n", summary.Till.ID, summary.Till.State)
					writeBreakdown(w, summary.Breakdown)
					fmt.Fprintln(w, "\nLINE\tSALE\tPRODUCT\tQTY\tSUBTOTAL\tMETHOD")
					for _, l := range lines {
						fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\n", l.LineItemID, l.SaleID, l.ProductName,
							l.Quantity, l.Subtotal.StringFixed(2), l.PaymentMethod)
					}
					for _, e := range expenses {
						fmt.Fprintf(w, "expense %d\t%s\t%s\n", e.ID, e.Supplier, e.Amount.StringFixed(2))
					}
				})
			})
		},
	}
}

func newTillDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <till-id>",
		Short: "Delete a till together with its sales and expenses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "till id")
			if err != nil {
				return err
			}
			if !yes {
				return NewExitError(ExitCommandError, "refusing to delete without --yes")
			}
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Tills.CascadeDelete(ctx, id); err != nil {
					return f.Fail("failed to delete till", err)
				}
				return f.Success(map[string]int64{"deleted_till_id": id}, func(w io.Writer) {
					fmt.Fprintf(w, "till %d deleted\n", id)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func writeBreakdown(w io.Writer, b model.Breakdown) {
	fmt.Fprintf(w, "net cash\t%s\n", b.NetCash.StringFixed(2))
	fmt.Fprintf(w, "net digital\t%s\n", b.NetDigital.StringFixed(2))
	fmt.Fprintf(w, "restricted cash\t%s\n", b.RestrictedCash.StringFixed(2))
	fmt.Fprintf(w, "restricted digital\t%s\n", b.RestrictedDigital.StringFixed(2))
	fmt.Fprintf(w, "grand total\t%s\n", b.GrandTotal.StringFixed(2))
	if b.Degraded {
		fmt.Fprintln(w, "(totals unavailable, showing zeros)")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
