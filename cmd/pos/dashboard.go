package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/brew-pos/internal/domain/dashboard"
	"github.com/xenking/brew-pos/internal/domain/user"
	"github.com/xenking/brew-pos/internal/format"
)

func (c *cli) dashboardCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show today's figures, best sellers and low stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := c.require(ctx, user.User.CanViewReports); err != nil {
				return err
			}
			svc := c.app.Dashboard()
			out := cmd.OutOrStdout()

			if !watch {
				snap, err := svc.Load(ctx)
				if err != nil {
					return errors.Wrap(err, "load dashboard")
				}
				return renderDashboard(out, c.app.Format, snap)
			}

			c.app.Health.Start(ctx, c.app.Config.Health.Interval)
			var mu sync.Mutex
			poller := dashboard.NewPoller(svc, c.app.Config.Dashboard.Refresh, func(snap *dashboard.Snapshot, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					fmt.Fprintf(out, "[WARNING] Dashboard refresh failed: %v\n", err)
					return
				}
				if !c.app.Health.Online() {
					fmt.Fprintln(out, "[WARNING] Backend is degraded")
				}
				_ = renderDashboard(out, c.app.Format, snap)
			})
			poller.Run(ctx)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing until interrupted")
	return cmd
}

func renderDashboard(out io.Writer, f *format.Formatter, snap *dashboard.Snapshot) error {
	w := newTable(out)
	fmt.Fprintf(w, "As of\t%s\n", f.DateTime(snap.FetchedAt))
	fmt.Fprintf(w, "Sales today\t%s\n", f.Money(snap.Summary.SalesToday))
	fmt.Fprintf(w, "Transactions today\t%s\n", f.Number(snap.Summary.TransactionsToday))
	fmt.Fprintf(w, "Average ticket\t%s\n", f.Money(snap.Summary.AverageTicket))
	fmt.Fprintf(w, "Sales this month\t%s\n", f.Money(snap.Summary.SalesThisMonth))
	fmt.Fprintln(w, "\t")

	fmt.Fprintln(w, "TOP PRODUCTS\tQTY\tREVENUE")
	for _, p := range snap.TopProducts {
		fmt.Fprintf(w, "%s\t%d\t%s\n", p.Name, p.Quantity, f.Money(p.Revenue))
	}
	fmt.Fprintln(w, "\t")

	fmt.Fprintln(w, "LOW STOCK\tSTOCK\t")
	if len(snap.LowStock) == 0 {
		fmt.Fprintln(w, "none\t\t")
	}
	for _, p := range snap.LowStock {
		fmt.Fprintf(w, "%s\t%d\t\n", p.Name, p.Stock)
	}
	fmt.Fprintln(w, "\t")

	fmt.Fprintln(w, "RECENT SALES\tCASHIER\tTOTAL")
	for _, s := range snap.RecentSales {
		fmt.Fprintf(w, "#%d %s\t%s\t%s\n", s.ID, f.DateTime(s.CreatedAt), s.Cashier, f.Money(s.Total))
	}
	return w.Flush()
}
