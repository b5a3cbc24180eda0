package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/brew-pos/internal/domain/sale"
)

func (c *cli) salesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Browse recorded sales",
	}
	cmd.AddCommand(c.salesListCommand(), c.salesShowCommand())
	return cmd
}

func (c *cli) salesListCommand() *cobra.Command {
	var (
		q        sale.HistoryQuery
		from, to string
		method   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := c.require(ctx, nil); err != nil {
				return err
			}
			f := c.app.Format

			start, end, err := dateRange(f, from, to)
			if err != nil {
				return err
			}
			if method != "" {
				m, err := sale.ParsePaymentMethod(method)
				if err != nil {
					return err
				}
				q.PaymentMethod = m
			}
			if q.PageSize == 0 {
				q.PageSize = c.app.Config.PageSize
			}

			sales, err := c.app.Client.Sales().List(ctx, sale.Filter{From: start, To: end})
			if err != nil {
				return errors.Wrap(err, "load sales")
			}
			q.From, q.To = start, end
			res := sale.History(sales, q)

			out := cmd.OutOrStdout()
			w := newTable(out)
			fmt.Fprintln(w, "ID\tDATE\tCASHIER\tPAYMENT\tREFERENCE\tITEMS\tTOTAL")
			for _, s := range res.Page.Items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
					s.ID, f.DateTime(s.CreatedAt), s.Cashier, s.PaymentMethod, s.ReferenceNo, s.Units(), f.Money(s.Total))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			pageFooter(out, res.Page)
			fmt.Fprintf(out, "%s sales, %s units, gross %s\n",
				f.Number(res.Summary.Count), f.Number(res.Summary.Units), f.Money(res.Summary.Gross))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	fl.StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	fl.StringVar(&method, "method", "", "payment method: cash, card or ewallet")
	fl.StringVar(&q.Cashier, "cashier", "", "match cashier username")
	fl.StringVarP(&q.Search, "search", "s", "", "match sale id or reference number")
	fl.IntVar(&q.Page, "page", 1, "page number")
	fl.IntVar(&q.PageSize, "page-size", 0, "rows per page (default from config)")
	return cmd
}

func (c *cli) salesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a sale and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := c.require(ctx, nil); err != nil {
				return err
			}
			s, err := c.app.Client.Sales().Get(ctx, id)
			if err != nil {
				return err
			}

			f := c.app.Format
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "Sale\t#%d\n", s.ID)
			fmt.Fprintf(w, "Date\t%s\n", f.DateTime(s.CreatedAt))
			fmt.Fprintf(w, "Cashier\t%s\n", s.Cashier)
			fmt.Fprintf(w, "Payment\t%s %s\n", s.PaymentMethod, s.ReferenceNo)
			fmt.Fprintln(w, "\t")
			fmt.Fprintln(w, "ITEM\tQTY\tPRICE\tSUBTOTAL")
			for _, it := range s.Items {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", it.Name, it.Quantity, f.Money(it.UnitPrice), f.Money(it.Subtotal))
			}
			fmt.Fprintf(w, "TOTAL\t%d\t\t%s\n", s.Units(), f.Money(s.Total))
			return w.Flush()
		},
	}
}
