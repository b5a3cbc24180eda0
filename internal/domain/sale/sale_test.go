package sale

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentMethod(t *testing.T) {
	assert.False(t, PaymentCash.RequiresReference())
	assert.True(t, PaymentCard.RequiresReference())
	assert.True(t, PaymentEWallet.RequiresReference())

	tests := []struct {
		in   string
		want PaymentMethod
	}{
		{in: "cash", want: PaymentCash},
		{in: " CARD ", want: PaymentCard},
		{in: "e-wallet", want: PaymentEWallet},
		{in: "gcash", want: PaymentEWallet},
	}
	for _, tt := range tests {
		got, err := ParsePaymentMethod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParsePaymentMethod("barter")
	require.Error(t, err)
}

func TestHistory(t *testing.T) {
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	sales := []Sale{
		{ID: 1, Total: decimal.RequireFromString("120.00"), PaymentMethod: PaymentCash, Cashier: "ana", CreatedAt: day.Add(8 * time.Hour),
			Items: []Item{{ProductID: 1, Quantity: 1}}},
		{ID: 2, Total: decimal.RequireFromString("325.50"), PaymentMethod: PaymentCard, ReferenceNo: "AUTH-991", Cashier: "ben", CreatedAt: day.Add(9 * time.Hour),
			Items: []Item{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}},
		{ID: 3, Total: decimal.RequireFromString("85.50"), PaymentMethod: PaymentEWallet, ReferenceNo: "GC-17", Cashier: "ana", CreatedAt: day.Add(26 * time.Hour),
			Items: []Item{{ProductID: 2, Quantity: 1}}},
	}

	t.Run("newest first with summary", func(t *testing.T) {
		res := History(sales, HistoryQuery{})
		require.Len(t, res.Page.Items, 3)
		assert.Equal(t, int64(3), res.Page.Items[0].ID)
		assert.Equal(t, int64(1), res.Page.Items[2].ID)
		assert.Equal(t, "531.00", res.Summary.Gross.StringFixed(2))
		assert.Equal(t, 5, res.Summary.Units)
	})

	t.Run("date range is half open", func(t *testing.T) {
		res := History(sales, HistoryQuery{From: day, To: day.Add(24 * time.Hour)})
		assert.Equal(t, 2, res.Summary.Count)
	})

	t.Run("payment method and cashier", func(t *testing.T) {
		res := History(sales, HistoryQuery{PaymentMethod: PaymentEWallet, Cashier: "ANA"})
		require.Len(t, res.Page.Items, 1)
		assert.Equal(t, int64(3), res.Page.Items[0].ID)
	})

	t.Run("search by reference", func(t *testing.T) {
		res := History(sales, HistoryQuery{Search: "auth"})
		require.Len(t, res.Page.Items, 1)
		assert.Equal(t, int64(2), res.Page.Items[0].ID)
	})

	t.Run("pagination keeps full summary", func(t *testing.T) {
		res := History(sales, HistoryQuery{Page: 2, PageSize: 2})
		require.Len(t, res.Page.Items, 1)
		assert.Equal(t, 3, res.Summary.Count)
	})
}
