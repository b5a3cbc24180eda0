package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/brew-pos/internal/domain/product"
)

var _ product.Repository = (*Products)(nil)

// Products is the catalog endpoint set.
type Products struct{ c *Client }

// Products returns the catalog endpoints.
func (c *Client) Products() *Products { return &Products{c: c} }

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	p := product.Product{Active: true}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = decodeInt(d)
		case "name":
			p.Name, err = decodeString(d)
		case "category":
			p.Category, err = decodeString(d)
		case "description":
			p.Description, err = decodeString(d)
		case "price":
			p.Price, err = decodeDecimal(d)
		case "stock", "stock_quantity":
			var n int64
			n, err = decodeInt(d)
			p.Stock = int(n)
		case "active", "is_active":
			p.Active, err = decodeBool(d)
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return p, errors.Wrap(err, "product")
	}
	return p, nil
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeDecimal(e, p.Price)
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("active")
	e.Bool(p.Active)
	e.ObjEnd()
}

func productPath(id int64) string {
	return "/api/products/" + strconv.FormatInt(id, 10)
}

func productNotFound(err error, id int64) error {
	if IsStatus(err, http.StatusNotFound) {
		return errors.Wrapf(product.ErrNotFound, "product %d", id)
	}
	return err
}

// List returns the catalog.
func (r *Products) List(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	err := r.c.do(ctx, request{method: http.MethodGet, path: "/api/products"}, func(d *jx.Decoder) error {
		return decodeArray(d, func(d *jx.Decoder) error {
			p, err := decodeProduct(d)
			out = append(out, p)
			return err
		})
	})
	return out, err
}

// Get returns one product.
func (r *Products) Get(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	err := r.c.do(ctx, request{method: http.MethodGet, path: productPath(id)}, func(d *jx.Decoder) (err error) {
		p, err = decodeProduct(d)
		return err
	})
	if err != nil {
		return nil, productNotFound(err, id)
	}
	return &p, nil
}

// Create adds a product after validating it locally.
func (r *Products) Create(ctx context.Context, in product.Product) (*product.Product, error) {
	if err := product.Validate(in); err != nil {
		return nil, err
	}
	var p product.Product
	err := r.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/products",
		body:   func(e *jx.Encoder) { encodeProduct(e, in) },
	}, func(d *jx.Decoder) (err error) {
		p, err = decodeProduct(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces a product after validating it locally.
func (r *Products) Update(ctx context.Context, in product.Product) (*product.Product, error) {
	if err := product.Validate(in); err != nil {
		return nil, err
	}
	var p product.Product
	err := r.c.do(ctx, request{
		method: http.MethodPut,
		path:   productPath(in.ID),
		body:   func(e *jx.Encoder) { encodeProduct(e, in) },
	}, func(d *jx.Decoder) (err error) {
		p, err = decodeProduct(d)
		return err
	})
	if err != nil {
		return nil, productNotFound(err, in.ID)
	}
	return &p, nil
}

// Delete removes a product.
func (r *Products) Delete(ctx context.Context, id int64) error {
	err := r.c.do(ctx, request{method: http.MethodDelete, path: productPath(id)}, nil)
	return productNotFound(err, id)
}
