package main

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/brew-pos/internal/domain/report"
	"github.com/xenking/brew-pos/internal/domain/user"
	"github.com/xenking/brew-pos/internal/listing"
)

func (c *cli) reportCommand() *cobra.Command {
	var (
		from, to string
		sortBy   string
		desc     bool
		csvPath  string
		compress bool
	)
	kinds := make([]string, 0, len(report.Kinds))
	for _, k := range report.Kinds {
		kinds = append(kinds, string(k))
	}

	cmd := &cobra.Command{
		Use:       "report <" + strings.Join(kinds, "|") + ">",
		Short:     "Sales grouped by day, product, payment method or cashier",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := report.ParseKind(args[0])
			if err != nil {
				return err
			}
			col, err := report.ParseColumn(sortBy)
			if err != nil {
				return err
			}
			start, end, err := dateRange(c.app.Format, from, to)
			if err != nil {
				return err
			}
			if _, err := c.require(ctx, user.User.CanViewReports); err != nil {
				return err
			}

			q := report.Query{Kind: kind, From: start, To: end}
			rows, err := c.app.Client.Reports().Fetch(ctx, q)
			if err != nil {
				return errors.Wrapf(err, "fetch %s report", kind)
			}
			t := report.Build(q, rows)
			order := listing.Asc
			if desc {
				order = listing.Desc
			}
			t.Sort(col, order)

			out := cmd.OutOrStdout()
			if len(t.Rows) == 0 {
				fmt.Fprintln(out, "No sales in this range")
			}
			if err := report.Render(out, t, c.app.Format.Money); err != nil {
				return err
			}
			if csvPath != "" {
				if err := report.ExportFile(csvPath, t, compress); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %d rows to %s\n", len(t.Rows), csvPath)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	f.StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	f.StringVar(&sortBy, "sort", string(report.ColumnLabel), "sort by label, transactions, quantity or revenue")
	f.BoolVar(&desc, "desc", false, "sort descending")
	f.StringVar(&csvPath, "csv", "", "also export the table as CSV to this path")
	f.BoolVar(&compress, "gzip", false, "gzip the CSV export")
	return cmd
}
