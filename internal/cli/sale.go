package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fekuna/omnipos-till-service/internal/app"
)

func NewSaleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Inspect sales and reverse sold lines",
	}
	cmd.AddCommand(newSaleShowCommand(rootOpts))
	cmd.AddCommand(newSaleReverseCommand(rootOpts))
	return cmd
}

func newSaleShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <sale-id>",
		Short: "Show a sale with its line items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "sale id")
			if err != nil {
				return err
			}
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.Sales.Get(ctx, id)
				if err != nil {
					return f.Fail("failed to load sale", err)
				}
				return f.Success(s, func(w io.Writer) {
					fmt.Fprintf(w, "sale %d\ttill %d\t%s\t%s\n", s.ID, s.TillID, s.PaymentMethod, s.Total.StringFixed(2))
					fmt.Fprintln(w, "LINE\tPRODUCT\tPRICE\tQTY\tSUBTOTAL")
					for _, it := range s.Items {
						fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", it.ID, it.ProductName,
							it.UnitPrice.StringFixed(2), it.Quantity, it.Subtotal.StringFixed(2))
					}
				})
			})
		},
	}
}

func newSaleReverseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <line-item-id>",
		Short: "Return one sold line: restock it and reduce the sale total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "line item id")
			if err != nil {
				return err
			}
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				r, err := a.Sales.Reverse(ctx, id)
				if err != nil {
					return f.Fail("failed to reverse line item", err)
				}
				return f.Success(r, func(w io.Writer) {
					fmt.Fprintf(w, "reversed %d x %s, sale %d total now %s\n", r.LineItem.Quantity,
						r.LineItem.ProductName, r.LineItem.SaleID, r.SaleTotal.StringFixed(2))
				})
			})
		},
	}
}
