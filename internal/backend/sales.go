package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/brew-pos/internal/domain/sale"
)

var _ sale.Repository = (*Sales)(nil)

// Sales is the sales endpoint set.
type Sales struct{ c *Client }

// Sales returns the sales endpoints.
func (c *Client) Sales() *Sales { return &Sales{c: c} }

func decodeSale(d *jx.Decoder) (sale.Sale, error) {
	var s sale.Sale
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			s.ID, err = decodeInt(d)
		case "total", "total_amount":
			s.Total, err = decodeDecimal(d)
		case "payment_method":
			var m string
			m, err = decodeString(d)
			s.PaymentMethod = sale.PaymentMethod(m)
		case "reference_no":
			s.ReferenceNo, err = decodeString(d)
		case "cashier", "cashier_name":
			s.Cashier, err = decodeString(d)
		case "created_at":
			s.CreatedAt, err = decodeTime(d)
		case "items":
			err = decodeArray(d, func(d *jx.Decoder) error {
				it, err := decodeSaleItem(d)
				s.Items = append(s.Items, it)
				return err
			})
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return s, errors.Wrap(err, "sale")
	}
	return s, nil
}

func decodeSaleItem(d *jx.Decoder) (sale.Item, error) {
	var it sale.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			it.ProductID, err = decodeInt(d)
		case "name", "product_name":
			it.Name, err = decodeString(d)
		case "quantity":
			var n int64
			n, err = decodeInt(d)
			it.Quantity = int(n)
		case "unit_price":
			it.UnitPrice, err = decodeDecimal(d)
		case "subtotal":
			it.Subtotal, err = decodeDecimal(d)
		default:
			return d.Skip()
		}
		return err
	})
	return it, err
}

// Create submits a checkout. The backend validates stock and records every
// line or none of them.
func (r *Sales) Create(ctx context.Context, req sale.Request) (*sale.Sale, error) {
	var s *sale.Sale
	err := r.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/sales",
		body: func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("items")
			e.ArrStart()
			for _, it := range req.Items {
				e.ObjStart()
				e.FieldStart("product_id")
				e.Int64(it.ProductID)
				e.FieldStart("quantity")
				e.Int(it.Quantity)
				e.ObjEnd()
			}
			e.ArrEnd()
			e.FieldStart("payment_method")
			e.Str(string(req.PaymentMethod))
			e.FieldStart("reference_no")
			e.Str(req.ReferenceNo)
			e.ObjEnd()
		},
	}, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "sale" {
				return d.Skip()
			}
			v, err := decodeSale(d)
			s = &v
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &ResponseError{Op: "POST /api/sales", Err: errors.New("missing sale")}
	}
	return s, nil
}

// List returns sales created in [f.From, f.To).
func (r *Sales) List(ctx context.Context, f sale.Filter) ([]sale.Sale, error) {
	q := url.Values{}
	setTime(q, "from", f.From)
	setTime(q, "to", f.To)

	var out []sale.Sale
	err := r.c.do(ctx, request{method: http.MethodGet, path: "/api/sales", query: q}, func(d *jx.Decoder) error {
		return decodeArray(d, func(d *jx.Decoder) error {
			s, err := decodeSale(d)
			out = append(out, s)
			return err
		})
	})
	return out, err
}

// Get returns one sale with its items.
func (r *Sales) Get(ctx context.Context, id int64) (*sale.Sale, error) {
	var s sale.Sale
	err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/sales/" + strconv.FormatInt(id, 10),
	}, func(d *jx.Decoder) (err error) {
		s, err = decodeSale(d)
		return err
	})
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, errors.Wrapf(sale.ErrNotFound, "sale %d", id)
		}
		return nil, err
	}
	return &s, nil
}
