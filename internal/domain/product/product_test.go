package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/brew-pos/internal/listing"
)

func testCatalog() []Product {
	return []Product{
		{ID: 1, Name: "Latte", Category: "Coffee", Price: decimal.RequireFromString("120.00"), Stock: 40},
		{ID: 2, Name: "Muffin", Category: "Pastry", Price: decimal.RequireFromString("85.50"), Stock: 4},
		{ID: 3, Name: "Americano", Category: "Coffee", Price: decimal.RequireFromString("95.00"), Stock: 0},
		{ID: 4, Name: "Croissant", Category: "Pastry", Price: decimal.RequireFromString("95.00"), Stock: 12},
		{ID: 5, Name: "Iced Latte", Category: "Coffee", Price: decimal.RequireFromString("135.00"), Stock: 10},
	}
}

func ids(products []Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestStockStatus(t *testing.T) {
	assert.Equal(t, StockOut, Product{Stock: 0}.StockStatus(10))
	assert.Equal(t, StockLow, Product{Stock: 10}.StockStatus(10))
	assert.Equal(t, StockOK, Product{Stock: 11}.StockStatus(10))
}

func TestBrowse(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []int64
	}{
		{name: "default sorts by name", q: Query{}, want: []int64{3, 4, 5, 1, 2}},
		{name: "search is case insensitive", q: Query{Search: "LATTE"}, want: []int64{5, 1}},
		{name: "category filter", q: Query{Category: "pastry"}, want: []int64{4, 2}},
		{name: "in stock only", q: Query{InStockOnly: true, Category: "Coffee"}, want: []int64{5, 1}},
		{name: "price ascending with id tiebreak", q: Query{Sort: SortByPrice}, want: []int64{2, 3, 4, 1, 5}},
		{name: "stock descending", q: Query{Sort: SortByStock, Order: listing.Desc}, want: []int64{1, 4, 5, 2, 3}},
		{name: "second page", q: Query{Page: 2, PageSize: 2}, want: []int64{5, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Browse(testCatalog(), tt.q)
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}
}

func TestBrowse_DoesNotMutateInput(t *testing.T) {
	catalog := testCatalog()
	_ = Browse(catalog, Query{Sort: SortByPrice, Order: listing.Desc})
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(catalog))
}

func TestCategories(t *testing.T) {
	catalog := append(testCatalog(), Product{ID: 9, Name: "Mystery"})
	assert.Equal(t, []string{"Coffee", "Pastry"}, Categories(catalog))
}

func TestLowStock(t *testing.T) {
	assert.Equal(t, []int64{3, 2, 5}, ids(LowStock(testCatalog(), 10)))
}

func TestValidate(t *testing.T) {
	ok := Product{Name: "Latte", Price: decimal.NewFromInt(120), Stock: 1}
	require.NoError(t, Validate(ok))

	tests := []struct {
		name  string
		p     Product
		field string
	}{
		{name: "blank name", p: Product{Name: "  "}, field: "name"},
		{name: "negative price", p: Product{Name: "x", Price: decimal.NewFromInt(-1)}, field: "price"},
		{name: "negative stock", p: Product{Name: "x", Stock: -2}, field: "stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.p)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.True(t, IsValidation(err))
		})
	}
}
