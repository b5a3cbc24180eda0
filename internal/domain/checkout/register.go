// Package checkout drives order entry at the register: it owns the cart,
// the selected payment method and the catalog snapshot, and submits sales.
package checkout

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/brew-pos/internal/domain/cart"
	"github.com/xenking/brew-pos/internal/domain/product"
	"github.com/xenking/brew-pos/internal/domain/sale"
	"github.com/xenking/brew-pos/internal/notice"
)

// Sentinel errors for checkout validation. Neither reaches the network.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrMissingReference = errors.New("reference number is required for this payment method")
)

// Options configures a Register. Zero values are usable.
type Options struct {
	// LowStockThreshold is passed to cart.New; a negative value selects
	// product.DefaultLowStockThreshold and zero warns only on the last unit.
	LowStockThreshold int
	Board             *notice.Board
	TracerProvider    trace.TracerProvider
	MeterProvider     metric.MeterProvider
}

// Register is one terminal's order entry state. It is not safe for
// concurrent use.
type Register struct {
	products product.Lister
	sales    sale.Repository
	board    *notice.Board

	cart      *cart.Cart
	catalog   []product.Product
	method    sale.PaymentMethod
	reference string

	tracer    trace.Tracer
	completed metric.Int64Counter
	failed    metric.Int64Counter
}

// NewRegister creates a Register with an empty cart and cash selected.
func NewRegister(products product.Lister, sales sale.Repository, opts Options) (*Register, error) {
	if opts.Board == nil {
		opts.Board = notice.NewBoard(notice.DefaultTTL)
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}

	meter := opts.MeterProvider.Meter("pos.checkout")
	completed, err := meter.Int64Counter("pos.checkout.completed",
		metric.WithDescription("Sales submitted successfully"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "completed counter")
	}
	failed, err := meter.Int64Counter("pos.checkout.failed",
		metric.WithDescription("Sale submissions rejected by validation or the backend"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed counter")
	}

	return &Register{
		products:  products,
		sales:     sales,
		board:     opts.Board,
		cart:      cart.New(opts.LowStockThreshold),
		method:    sale.DefaultPaymentMethod,
		tracer:    opts.TracerProvider.Tracer("pos.checkout"),
		completed: completed,
		failed:    failed,
	}, nil
}

// Refresh fetches the catalog and replaces the snapshot. Cart lines that no
// longer fit the new stock are reduced and a warning is posted for each.
func (r *Register) Refresh(ctx context.Context) error {
	list, err := r.products.List(ctx)
	if err != nil {
		r.board.Postf(notice.Error, "Failed to load products: %v", err)
		return errors.Wrap(err, "list products")
	}
	r.catalog = list
	for _, adj := range r.cart.SetSnapshot(list) {
		if adj.To == 0 {
			r.board.Postf(notice.Warning, "%s is no longer in stock and was removed from the cart", adj.Name)
			continue
		}
		r.board.Postf(notice.Warning, "%s reduced from %d to %d to match stock", adj.Name, adj.From, adj.To)
	}
	return nil
}

// Catalog returns the latest product snapshot.
func (r *Register) Catalog() []product.Product {
	return r.catalog
}

// Product looks up a product in the snapshot.
func (r *Register) Product(id int64) (product.Product, error) {
	for _, p := range r.catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, errors.Wrapf(product.ErrNotFound, "product %d", id)
}

// Add puts one unit of the product in the cart.
func (r *Register) Add(id int64) error {
	return r.AddN(id, 1)
}

// AddN puts qty units of the product in the cart and posts one notice for
// the whole change. Nothing is added unless every unit fits.
func (r *Register) AddN(id int64, qty int) error {
	p, err := r.Product(id)
	if err != nil {
		return r.reject(err)
	}
	n, err := r.cart.AddN(p, qty)
	if err != nil {
		return r.reject(err)
	}
	r.board.Post(n)
	return nil
}

// Increment adds one unit to an existing line.
func (r *Register) Increment(id int64) error {
	return r.reject(r.cart.Increment(id))
}

// Decrement removes one unit from a line.
func (r *Register) Decrement(id int64) error {
	return r.reject(r.cart.Decrement(id))
}

// UpdateQuantity sets a line's quantity; below 1 removes the line.
func (r *Register) UpdateQuantity(id int64, qty int) error {
	return r.reject(r.cart.UpdateQuantity(id, qty))
}

// Remove deletes a line.
func (r *Register) Remove(id int64) {
	r.cart.Remove(id)
}

// Clear empties the cart.
func (r *Register) Clear() {
	r.cart.Clear()
}

// Cart exposes the cart for rendering.
func (r *Register) Cart() *cart.Cart {
	return r.cart
}

// Notices returns the board the register posts to.
func (r *Register) Notices() *notice.Board {
	return r.board
}

// SetPayment selects the payment method and reference number.
func (r *Register) SetPayment(method sale.PaymentMethod, reference string) error {
	if !method.Valid() {
		return errors.Errorf("unknown payment method %q", method)
	}
	r.method = method
	r.reference = strings.TrimSpace(reference)
	return nil
}

// Payment returns the selected payment method and reference number.
func (r *Register) Payment() (sale.PaymentMethod, string) {
	return r.method, r.reference
}

// Submit sends the cart as one sale. On success the cart is cleared, the
// payment resets to cash and the catalog is re-fetched. On failure the
// register is left exactly as it was.
func (r *Register) Submit(ctx context.Context) (*sale.Sale, error) {
	ctx, span := r.tracer.Start(ctx, "checkout.submit",
		trace.WithAttributes(
			attribute.String("payment_method", string(r.method)),
			attribute.Int("lines", r.cart.Len()),
		),
	)
	defer span.End()

	s, err := r.submit(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(r.method))))
		return nil, err
	}
	r.completed.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(s.PaymentMethod))))
	span.SetAttributes(attribute.Int64("sale_id", s.ID))
	return s, nil
}

func (r *Register) submit(ctx context.Context) (*sale.Sale, error) {
	lg := zctx.From(ctx)

	if r.cart.IsEmpty() {
		return nil, r.reject(ErrEmptyCart)
	}
	if r.method.RequiresReference() && r.reference == "" {
		return nil, r.reject(ErrMissingReference)
	}

	req := sale.Request{
		PaymentMethod: r.method,
		ReferenceNo:   r.reference,
	}
	for _, l := range r.cart.Lines() {
		req.Items = append(req.Items, sale.RequestItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	s, err := r.sales.Create(ctx, req)
	if err != nil {
		lg.Warn("Checkout failed", zap.Error(err))
		r.board.Postf(notice.Error, "Checkout failed: %v", err)
		return nil, errors.Wrap(err, "create sale")
	}

	r.cart.Clear()
	r.method = sale.DefaultPaymentMethod
	r.reference = ""
	r.board.Postf(notice.Success, "Sale #%d completed", s.ID)
	lg.Info("Sale completed",
		zap.Int64("sale_id", s.ID),
		zap.String("total", s.Total.StringFixed(2)),
		zap.String("payment_method", string(s.PaymentMethod)),
	)

	if err := r.Refresh(ctx); err != nil {
		lg.Warn("Product refresh after checkout failed", zap.Error(err))
		r.board.Postf(notice.Warning, "Sale recorded, but the product list could not be refreshed")
	}
	return s, nil
}

// reject posts err as an error notice and returns it unchanged.
func (r *Register) reject(err error) error {
	if err != nil {
		r.board.Postf(notice.Error, "%s", capitalize(err.Error()))
	}
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
