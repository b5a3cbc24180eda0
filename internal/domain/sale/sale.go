package sale

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested sale does not exist.
var ErrNotFound = errors.New("sale not found")

// PaymentMethod is how a sale was settled.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentEWallet PaymentMethod = "ewallet"
)

// DefaultPaymentMethod is selected on a fresh register and after every
// completed checkout.
const DefaultPaymentMethod = PaymentCash

// PaymentMethods lists the methods accepted by the backend.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentEWallet}

// RequiresReference reports whether sales paid this way must carry the
// payment processor's reference number.
func (m PaymentMethod) RequiresReference() bool {
	return m == PaymentCard || m == PaymentEWallet
}

// Valid reports whether m is one of PaymentMethods.
func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod maps user input to a PaymentMethod. "e-wallet" and
// "gcash" are accepted as aliases of ewallet.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "e-wallet", "gcash":
		return PaymentEWallet, nil
	default:
		if m.Valid() {
			return m, nil
		}
		return "", errors.Errorf("unknown payment method %q", s)
	}
}

// Sale is a completed transaction as recorded by the backend.
type Sale struct {
	ID            int64
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	ReferenceNo   string
	Cashier       string
	CreatedAt     time.Time
	Items         []Item
}

// Units returns the number of units sold.
func (s Sale) Units() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Item is one line of a recorded sale.
type Item struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Request is the checkout payload sent to the backend.
type Request struct {
	Items         []RequestItem
	PaymentMethod PaymentMethod
	ReferenceNo   string
}

// RequestItem is one product and quantity in a Request.
type RequestItem struct {
	ProductID int64
	Quantity  int
}

// Filter narrows the sales list on the backend side.
type Filter struct {
	From time.Time
	To   time.Time
}

// Repository defines sale operations exposed by the backend.
type Repository interface {
	Create(ctx context.Context, req Request) (*Sale, error)
	List(ctx context.Context, f Filter) ([]Sale, error)
	Get(ctx context.Context, id int64) (*Sale, error)
}
