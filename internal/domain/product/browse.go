package product

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/xenking/brew-pos/internal/listing"
)

// SortField selects the catalog column to sort by.
type SortField string

const (
	SortByName  SortField = "name"
	SortByPrice SortField = "price"
	SortByStock SortField = "stock"
)

// Query describes the catalog browser's current filter, sort and page.
type Query struct {
	Search      string
	Category    string
	InStockOnly bool
	Sort        SortField
	Order       listing.Order
	Page        int
	PageSize    int
}

// Browse filters, sorts and paginates a catalog snapshot. The input slice is
// not modified.
func Browse(products []Product, q Query) listing.Page[Product] {
	filtered := lo.Filter(products, func(p Product, _ int) bool {
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			return false
		}
		if q.InStockOnly && p.Stock <= 0 {
			return false
		}
		return listing.Match(q.Search, p.Name, p.Category)
	})

	slices.SortStableFunc(filtered, func(a, b Product) int {
		var c int
		switch q.Sort {
		case SortByPrice:
			c = a.Price.Cmp(b.Price)
		case SortByStock:
			c = cmp.Compare(a.Stock, b.Stock)
		default:
			c = cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return q.Order.Apply(c)
	})

	return listing.Paginate(filtered, q.Page, q.PageSize)
}

// Categories returns the sorted distinct categories present in products.
func Categories(products []Product) []string {
	cats := lo.Uniq(lo.FilterMap(products, func(p Product, _ int) (string, bool) {
		return p.Category, p.Category != ""
	}))
	slices.Sort(cats)
	return cats
}

// LowStock returns products whose stock is at or below threshold, lowest
// stock first.
func LowStock(products []Product, threshold int) []Product {
	low := lo.Filter(products, func(p Product, _ int) bool {
		return p.Stock <= threshold
	})
	slices.SortStableFunc(low, func(a, b Product) int {
		return cmp.Or(cmp.Compare(a.Stock, b.Stock), cmp.Compare(a.ID, b.ID))
	})
	return low
}
