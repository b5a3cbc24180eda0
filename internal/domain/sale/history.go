package sale

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/xenking/brew-pos/internal/listing"
)

// HistoryQuery describes the sales list screen's current filter and page.
// Zero values disable the corresponding filter.
type HistoryQuery struct {
	From          time.Time
	To            time.Time
	PaymentMethod PaymentMethod
	Cashier       string
	Search        string
	Page          int
	PageSize      int
}

// Summary aggregates the filtered sales.
type Summary struct {
	Count int
	Gross decimal.Decimal
	Units int
}

// HistoryResult is one page of sales plus the summary of every match.
type HistoryResult struct {
	Page    listing.Page[Sale]
	Summary Summary
}

// History filters sales client-side, newest first, and paginates them. To is
// exclusive.
func History(sales []Sale, q HistoryQuery) HistoryResult {
	matched := lo.Filter(sales, func(s Sale, _ int) bool {
		if !q.From.IsZero() && s.CreatedAt.Before(q.From) {
			return false
		}
		if !q.To.IsZero() && !s.CreatedAt.Before(q.To) {
			return false
		}
		if q.PaymentMethod != "" && s.PaymentMethod != q.PaymentMethod {
			return false
		}
		if q.Cashier != "" && !listing.Match(q.Cashier, s.Cashier) {
			return false
		}
		return listing.Match(q.Search, s.ReferenceNo, strconv.FormatInt(s.ID, 10))
	})

	slices.SortStableFunc(matched, func(a, b Sale) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})

	sum := Summary{Count: len(matched), Gross: decimal.Zero}
	for _, s := range matched {
		sum.Gross = sum.Gross.Add(s.Total)
		sum.Units += s.Units()
	}

	return HistoryResult{
		Page:    listing.Paginate(matched, q.Page, q.PageSize),
		Summary: sum,
	}
}
