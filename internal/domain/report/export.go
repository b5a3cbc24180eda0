package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
)

var csvHeader = []string{"key", "label", "transactions", "quantity", "revenue", "share_pct"}

// WriteCSV writes the rows followed by the totals row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range append(withTotalsRoom(t.Rows), t.Totals) {
		rec := []string{
			r.Key,
			r.Label,
			strconv.Itoa(r.Transactions),
			strconv.Itoa(r.Quantity),
			r.Revenue.StringFixed(2),
			t.Share(r).StringFixed(1),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "write row %s", r.Key)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	return nil
}

// ExportFile writes the table as CSV to path, gzip-compressed when compress
// is set or path ends in ".gz".
func ExportFile(path string, t Table, compress bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	if !compress && !strings.HasSuffix(path, ".gz") {
		return WriteCSV(f, t)
	}

	gz := pgzip.NewWriter(f)
	if err := WriteCSV(gz, t); err != nil {
		_ = gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return errors.Wrapf(err, "finish gzip %s", path)
	}
	return nil
}

// Render writes the table as aligned text. money formats revenue cells.
func Render(w io.Writer, t Table, money func(decimal.Decimal) string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\tTXNS\tQTY\tREVENUE\tSHARE\t\n", strings.ToUpper(string(t.Query.Kind)))
	for _, r := range append(withTotalsRoom(t.Rows), t.Totals) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s%%\t\n",
			r.Label, r.Transactions, r.Quantity, money(r.Revenue), t.Share(r).StringFixed(1))
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "flush table")
	}
	return nil
}

// withTotalsRoom copies rows so appending the totals row never writes into the
// caller's backing array.
func withTotalsRoom(rows []Row) []Row {
	out := make([]Row, len(rows), len(rows)+1)
	copy(out, rows)
	return out
}
