package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/brew-pos/internal/domain/product"
	"github.com/xenking/brew-pos/internal/domain/sale"
)

// DefaultRefreshInterval is how often the dashboard re-fetches.
const DefaultRefreshInterval = 2 * time.Minute

// Summary holds the headline figures computed by the backend.
type Summary struct {
	SalesToday        decimal.Decimal
	TransactionsToday int
	AverageTicket     decimal.Decimal
	SalesThisMonth    decimal.Decimal
}

// TopProduct is a best seller over the backend's reporting window.
type TopProduct struct {
	ProductID int64
	Name      string
	Quantity  int
	Revenue   decimal.Decimal
}

// Snapshot is everything the dashboard screen renders.
type Snapshot struct {
	Summary     Summary
	TopProducts []TopProduct
	LowStock    []product.Product
	RecentSales []sale.Sale
	FetchedAt   time.Time
}

// Source is the backend's dashboard endpoint set.
type Source interface {
	Summary(ctx context.Context) (*Summary, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
}
