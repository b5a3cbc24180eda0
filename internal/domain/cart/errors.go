package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrOutOfStock is returned when adding a product whose last known stock
	// is zero.
	ErrOutOfStock = errors.New("out of stock")
	// ErrInsufficientStock is returned when a change would put more units in
	// the cart than were last known to be in stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNotInCart is returned when a line operation names a product that has
	// no line.
	ErrNotInCart = errors.New("product not in cart")
)

// StockError carries the product and quantities behind an ErrOutOfStock or
// ErrInsufficientStock failure.
type StockError struct {
	Err       error
	ProductID int64
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	if errors.Is(e.Err, ErrOutOfStock) {
		return fmt.Sprintf("%s is out of stock", e.Name)
	}
	return fmt.Sprintf("only %d %s in stock, cannot put %d in cart", e.Available, e.Name, e.Requested)
}

func (e *StockError) Unwrap() error { return e.Err }
