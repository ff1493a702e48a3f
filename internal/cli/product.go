package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fekuna/omnipos-till-service/internal/app"
	"github.com/fekuna/omnipos-till-service/internal/product/dto"
)

func NewProductCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the product catalog",
	}
	cmd.AddCommand(newProductAddCommand(rootOpts))
	cmd.AddCommand(newProductListCommand(rootOpts))
	return cmd
}

func newProductAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		input dto.CreateProductInput
		price string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid price %q", price))
			}
			input.Price = p

			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				created, err := a.Products.CreateProduct(ctx, &input)
				if err != nil {
					return f.Fail("failed to add product", err)
				}
				return f.Success(created, func(w io.Writer) {
					fmt.Fprintf(w, "product %d %s added at %s, stock %d\n",
						created.Code, created.Name, created.Price.StringFixed(2), created.Stock)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&input.Code, "code", 0, "product code (barcode)")
	cmd.Flags().StringVar(&input.Name, "name", "", "product name")
	cmd.Flags().StringVar(&price, "price", "", "unit price")
	cmd.Flags().IntVar(&input.Stock, "stock", 0, "units on hand")
	cmd.Flags().BoolVar(&input.IsRestrictedCategory, "restricted", false, "reported in the restricted-category buckets")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newProductListCommand(rootOpts *RootOptions) *cobra.Command {
	filters := dto.ProductFilters{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				products, err := a.Products.ListProducts(ctx, &filters)
				if err != nil {
					return f.Fail("failed to list products", err)
				}
				return f.Success(products, func(w io.Writer) {
					fmt.Fprintln(w, "CODE\tNAME\tPRICE\tSTOCK\tRESTRICTED")
					for _, p := range products {
						fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\n", p.Code, p.Name, p.Price.StringFixed(2), p.Stock, p.IsRestrictedCategory)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&filters.SearchQuery, "query", "", "substring of the name")
	cmd.Flags().BoolVar(&filters.RestrictedOnly, "restricted", false, "only restricted-category products")
	cmd.Flags().StringVar(&filters.SortBy, "sort", "name", "sort by name, price or stock")
	cmd.Flags().IntVar(&filters.Limit, "limit", 0, "maximum products to list (0 for all)")
	return cmd
}
