package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// DefaultLowStockThreshold is the remaining-unit count at or below which the
// register warns about low stock.
const DefaultLowStockThreshold = 10

// Product is a catalog snapshot of a sellable item as last returned by the
// backend. Stock is the on-hand count at fetch time.
type Product struct {
	ID          int64
	Name        string
	Category    string
	Description string
	Price       decimal.Decimal
	Stock       int
	Active      bool
}

// StockStatus classifies on-hand stock for display.
type StockStatus string

const (
	StockOK  StockStatus = "ok"
	StockLow StockStatus = "low"
	StockOut StockStatus = "out"
)

// StockStatus reports whether the product is out of stock, at or below the
// low-stock threshold, or comfortably stocked.
func (p Product) StockStatus(threshold int) StockStatus {
	switch {
	case p.Stock <= 0:
		return StockOut
	case p.Stock <= threshold:
		return StockLow
	default:
		return StockOK
	}
}

// Repository defines catalog operations exposed by the backend.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, p Product) (*Product, error)
	Delete(ctx context.Context, id int64) error
}

// Lister is the read-only slice of Repository used by screens that only
// browse the catalog.
type Lister interface {
	List(ctx context.Context) ([]Product, error)
}
