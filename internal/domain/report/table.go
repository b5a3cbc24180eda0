package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/brew-pos/internal/listing"
)

// Column names a sortable report column.
type Column string

const (
	ColumnLabel        Column = "label"
	ColumnTransactions Column = "transactions"
	ColumnQuantity     Column = "quantity"
	ColumnRevenue      Column = "revenue"
)

// ParseColumn maps user input to a Column.
func ParseColumn(s string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ColumnLabel, ColumnTransactions, ColumnQuantity, ColumnRevenue:
		return c, nil
	case "":
		return ColumnLabel, nil
	default:
		return "", errors.Errorf("unknown column %q", s)
	}
}

// Table is a report ready for display: its rows and a totals row.
type Table struct {
	Query  Query
	Rows   []Row
	Totals Row
}

var hundred = decimal.NewFromInt(100)

// Build copies rows into a Table and computes the totals row.
func Build(q Query, rows []Row) Table {
	t := Table{
		Query: q,
		Rows:  slices.Clone(rows),
		Totals: Row{
			Key:     "total",
			Label:   "Total",
			Revenue: decimal.Zero,
		},
	}
	for _, r := range rows {
		t.Totals.Transactions += r.Transactions
		t.Totals.Quantity += r.Quantity
		t.Totals.Revenue = t.Totals.Revenue.Add(r.Revenue)
	}
	return t
}

// Share returns r's percentage of total revenue rounded to one decimal
// place, or zero when there is no revenue.
func (t Table) Share(r Row) decimal.Decimal {
	if t.Totals.Revenue.IsZero() {
		return decimal.Zero
	}
	return r.Revenue.Mul(hundred).Div(t.Totals.Revenue).Round(1)
}

// Sort orders the rows in place by col. Daily reports sort labels by key so
// dates stay chronological.
func (t Table) Sort(col Column, order listing.Order) {
	slices.SortStableFunc(t.Rows, func(a, b Row) int {
		var c int
		switch col {
		case ColumnTransactions:
			c = cmp.Compare(a.Transactions, b.Transactions)
		case ColumnQuantity:
			c = cmp.Compare(a.Quantity, b.Quantity)
		case ColumnRevenue:
			c = a.Revenue.Cmp(b.Revenue)
		default:
			if t.Query.Kind == KindDaily {
				c = cmp.Compare(a.Key, b.Key)
			} else {
				c = cmp.Compare(strings.ToLower(a.Label), strings.ToLower(b.Label))
			}
		}
		return order.Apply(c)
	})
}
