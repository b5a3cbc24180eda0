// Package listing implements the client-side search, sort and pagination
// shared by every list screen.
package listing

import (
	"strings"

	"github.com/samber/lo"
)

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 20

// Page is one page of a filtered and sorted result set.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether a page precedes this one.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// Paginate returns the requested 1-based page of items. Pages below 1 clamp to
// the first page and pages past the end clamp to the last one; an empty set
// has a single empty page 1.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	pages := (total + pageSize - 1) / pageSize

	if page < 1 {
		page = 1
	}
	if last := max(pages, 1); page > last {
		page = last
	}

	out := []T{}
	if total > 0 {
		chunks := lo.Chunk(items, pageSize)
		out = chunks[page-1]
	}

	return Page[T]{
		Items:      out,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: pages,
	}
}

// Match reports whether query is a case-insensitive substring of any field.
// An empty query matches everything.
func Match(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return lo.SomeBy(fields, func(f string) bool {
		return strings.Contains(strings.ToLower(f), q)
	})
}

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder maps user input to an Order, defaulting to Asc.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Apply flips a three-way comparison result for descending order.
func (o Order) Apply(cmp int) int {
	if o == Desc {
		return -cmp
	}
	return cmp
}
