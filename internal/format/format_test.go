package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormatter(t *testing.T) *Formatter {
	t.Helper()
	f, err := New(Config{Currency: "PHP", Symbol: "₱", Locale: "en", TimeZone: "UTC"})
	require.NoError(t, err)
	return f
}

func TestMoney(t *testing.T) {
	f := newFormatter(t)

	assert.Equal(t, "₱325.50", f.Money(decimal.RequireFromString("325.5")))
	assert.Equal(t, "₱1,234.50", f.Money(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "₱0.00", f.Money(decimal.Zero))
	assert.Equal(t, "-₱85.50", f.Money(decimal.RequireFromString("-85.5")))
	assert.Equal(t, "PHP", f.Currency())
}

func TestMoney_DefaultSymbol(t *testing.T) {
	f, err := New(Config{Currency: "PHP", Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "PHP 120.00", f.Money(decimal.NewFromInt(120)))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Config{Currency: "XX", Locale: "en"})
	require.Error(t, err)

	_, err = New(Config{Currency: "PHP", Locale: "en", TimeZone: "Mars/Olympus"})
	require.Error(t, err)
}

func TestDates(t *testing.T) {
	f := newFormatter(t)
	ts := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "Jun 15, 2025 2:30 PM", f.DateTime(ts))
	assert.Equal(t, "Jun 15, 2025", f.Date(ts))
	assert.Equal(t, "-", f.DateTime(time.Time{}))

	d, err := f.ParseDate("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = f.ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = f.ParseDate("15/06/2025")
	require.Error(t, err)
}

func TestMoney_ExactBeyondFloatPrecision(t *testing.T) {
	f := newFormatter(t)

	assert.Equal(t, "₱90,071,992,547,409,931.25", f.Money(decimal.RequireFromString("90071992547409931.25")))
	assert.Equal(t, "₱0.13", f.Money(decimal.RequireFromString("0.125")))
	assert.Equal(t, "₱1,000,000.00", f.Money(decimal.NewFromInt(1000000)))
}

func TestMoney_LocaleSeparators(t *testing.T) {
	f, err := New(Config{Currency: "EUR", Symbol: "€", Locale: "de", TimeZone: "UTC"})
	require.NoError(t, err)
	assert.Equal(t, "€1.234,50", f.Money(decimal.RequireFromString("1234.5")))
}
