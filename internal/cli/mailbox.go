package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fekuna/omnipos-till-service/internal/app"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

func NewMailboxCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mailbox",
		Short: "Inspect or empty the shared cart mailbox",
	}
	cmd.AddCommand(newMailboxListCommand(rootOpts))
	cmd.AddCommand(newMailboxDrainCommand(rootOpts))
	cmd.AddCommand(newMailboxClearCommand(rootOpts))
	return cmd
}

func newMailboxListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending mailbox entries without claiming them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := a.Mailbox.Snapshot(ctx)
				if err != nil {
					return f.Fail("failed to read mailbox", err)
				}
				return f.Success(entries, entriesText(entries))
			})
		},
	}
}

func newMailboxDrainCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Claim and remove every pending entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := a.Mailbox.Drain(ctx)
				if err != nil {
					return f.Fail("failed to drain mailbox", err)
				}
				f.VerboseLog("claimed %d entries", len(entries))
				return f.Success(entries, entriesText(entries))
			})
		},
	}
}

func newMailboxClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every pending entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Mailbox.Clear(ctx)
				if err != nil {
					return f.Fail("failed to clear mailbox", err)
				}
				return f.Success(map[string]int64{"deleted": n}, func(w io.Writer) {
					fmt.Fprintf(w, "%d entries deleted\n", n)
				})
			})
		},
	}
}

func entriesText(entries []model.MailboxEntry) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "ID\tPRODUCT\tPRICE\tQTY\tFROM")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", e.ID, e.ProductName, e.Price.StringFixed(2), e.Quantity, e.OriginTerminal)
		}
		fmt.Fprintf(w, "total\t%s\n", model.MailboxTotal(entries).StringFixed(2))
	}
}
