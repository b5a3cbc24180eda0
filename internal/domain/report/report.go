// Package report holds the tabular sales analytics screen: typed report
// rows from the backend plus client-side sorting, totals and export.
package report

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind selects how sales are grouped.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindProduct Kind = "product"
	KindPayment Kind = "payment"
	KindCashier Kind = "cashier"
)

// Kinds lists every report the backend serves.
var Kinds = []Kind{KindDaily, KindProduct, KindPayment, KindCashier}

// ErrInvalidRange is returned when a query's From is not before its To.
var ErrInvalidRange = errors.New("report range start must be before its end")

// ParseKind maps user input to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Kinds {
		if v == k {
			return k, nil
		}
	}
	return "", errors.Errorf("unknown report %q", s)
}

// Query selects a report and its half-open date range.
type Query struct {
	Kind Kind
	From time.Time
	To   time.Time
}

// Validate checks the kind and range.
func (q Query) Validate() error {
	if _, err := ParseKind(string(q.Kind)); err != nil {
		return err
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.From.Before(q.To) {
		return ErrInvalidRange
	}
	return nil
}

// Row is one group of a report. Key is the grouping value as sent by the
// backend (a date, product ID, payment method or username); Label is its
// display form.
type Row struct {
	Key          string
	Label        string
	Transactions int
	Quantity     int
	Revenue      decimal.Decimal
}

// Repository fetches report rows from the backend.
type Repository interface {
	Fetch(ctx context.Context, q Query) ([]Row, error)
}
