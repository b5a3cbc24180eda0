// Package cart implements the register's in-memory shopping cart.
//
// The cart validates every change against the most recent catalog snapshot it
// was given. It never tracks stock across the network: the backend re-checks
// stock when the sale is submitted and its answer is final.
package cart

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/brew-pos/internal/domain/product"
	"github.com/xenking/brew-pos/internal/notice"
)

// Line is one product in the cart. Quantity is always at least 1.
type Line struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Adjustment records a line reduced by SetSnapshot because stock dropped
// below the quantity already in the cart.
type Adjustment struct {
	ProductID int64
	Name      string
	From      int
	To        int
}

// Cart is owned by a single register and is not safe for concurrent use.
type Cart struct {
	lines     []Line
	stock     map[int64]int
	threshold int
}

// New returns an empty cart that warns when remaining stock drops to
// threshold units or fewer. A negative threshold selects
// product.DefaultLowStockThreshold.
func New(threshold int) *Cart {
	if threshold < 0 {
		threshold = product.DefaultLowStockThreshold
	}
	return &Cart{
		stock:     make(map[int64]int),
		threshold: threshold,
	}
}

// SetSnapshot replaces the stock snapshot used for validation. Lines holding
// more units than the new snapshot allows are reduced, and dropped when the
// product is gone or out of stock; the reductions are returned.
func (c *Cart) SetSnapshot(products []product.Product) []Adjustment {
	stock := make(map[int64]int, len(products))
	for _, p := range products {
		stock[p.ID] = p.Stock
	}
	c.stock = stock

	var adjusted []Adjustment
	kept := c.lines[:0]
	for _, l := range c.lines {
		available := stock[l.ProductID]
		if l.Quantity > available {
			adjusted = append(adjusted, Adjustment{
				ProductID: l.ProductID,
				Name:      l.Name,
				From:      l.Quantity,
				To:        available,
			})
			if available < 1 {
				continue
			}
			l.Quantity = available
		}
		kept = append(kept, l)
	}
	c.lines = kept
	return adjusted
}

// Add puts one unit of p in the cart, creating its line on first add. The
// returned notice is a low-stock warning when the units left after the add
// are at or below the threshold.
func (c *Cart) Add(p product.Product) (notice.Notice, error) {
	return c.AddN(p, 1)
}

// AddN puts qty units of p in the cart at once. Either every unit fits the
// stock snapshot or the cart is left unchanged.
func (c *Cart) AddN(p product.Product, qty int) (notice.Notice, error) {
	if qty < 1 {
		return notice.Notice{}, errors.Errorf("quantity must be at least 1, got %d", qty)
	}
	if _, ok := c.stock[p.ID]; !ok {
		c.stock[p.ID] = p.Stock
	}
	stock := c.stock[p.ID]
	if stock <= 0 {
		return notice.Notice{}, &StockError{Err: ErrOutOfStock, ProductID: p.ID, Name: p.Name}
	}

	i := c.index(p.ID)
	total := qty
	if i >= 0 {
		total += c.lines[i].Quantity
	}
	if total > stock {
		return notice.Notice{}, &StockError{
			Err:       ErrInsufficientStock,
			ProductID: p.ID,
			Name:      p.Name,
			Requested: total,
			Available: stock,
		}
	}

	if i >= 0 {
		c.lines[i].Quantity = total
	} else {
		c.lines = append(c.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  qty,
		})
	}

	added := p.Name
	if qty > 1 {
		added = fmt.Sprintf("%d x %s", qty, p.Name)
	}
	if remaining := c.Available(p.ID); remaining <= c.threshold {
		return notice.New(notice.Warning,
			fmt.Sprintf("Added %s to cart. Low stock: only %d left", added, remaining)), nil
	}
	return notice.New(notice.Success, fmt.Sprintf("Added %s to cart", added)), nil
}

// UpdateQuantity sets a line's quantity. A quantity below 1 removes the line.
func (c *Cart) UpdateQuantity(productID int64, qty int) error {
	i := c.index(productID)
	if i < 0 {
		return ErrNotInCart
	}
	if qty < 1 {
		c.removeAt(i)
		return nil
	}

	stock := c.stockOf(productID, 0)
	if qty > stock {
		return &StockError{
			Err:       ErrInsufficientStock,
			ProductID: productID,
			Name:      c.lines[i].Name,
			Requested: qty,
			Available: stock,
		}
	}
	c.lines[i].Quantity = qty
	return nil
}

// Increment adds one unit to an existing line.
func (c *Cart) Increment(productID int64) error {
	return c.UpdateQuantity(productID, c.Quantity(productID)+1)
}

// Decrement removes one unit from a line, removing the line when it reaches
// zero.
func (c *Cart) Decrement(productID int64) error {
	if c.index(productID) < 0 {
		return ErrNotInCart
	}
	return c.UpdateQuantity(productID, c.Quantity(productID)-1)
}

// Remove deletes a line. Removing a product that is not in the cart is a
// no-op.
func (c *Cart) Remove(productID int64) {
	if i := c.index(productID); i >= 0 {
		c.removeAt(i)
	}
}

// Clear empties the cart. The stock snapshot is kept.
func (c *Cart) Clear() {
	c.lines = nil
}

// Total returns the sum of unit price times quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Lines returns a copy of the cart's lines in the order they were added.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.lines) }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Units returns the total number of units across all lines.
func (c *Cart) Units() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Quantity returns the quantity of productID in the cart, or 0.
func (c *Cart) Quantity(productID int64) int {
	if i := c.index(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Available returns the units of productID still addable per the snapshot.
func (c *Cart) Available(productID int64) int {
	return c.stockOf(productID, 0) - c.Quantity(productID)
}

func (c *Cart) stockOf(productID int64, fallback int) int {
	if s, ok := c.stock[productID]; ok {
		return s
	}
	return fallback
}

func (c *Cart) index(productID int64) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
