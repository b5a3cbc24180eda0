package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/brew-pos/internal/domain/dashboard"
)

var _ dashboard.Source = (*Dashboard)(nil)

// Dashboard is the dashboard endpoint set.
type Dashboard struct{ c *Client }

// Dashboard returns the dashboard endpoints.
func (c *Client) Dashboard() *Dashboard { return &Dashboard{c: c} }

// Summary returns today's and this month's headline figures.
func (r *Dashboard) Summary(ctx context.Context) (*dashboard.Summary, error) {
	var s dashboard.Summary
	err := r.c.do(ctx, request{method: http.MethodGet, path: "/api/dashboard/summary"}, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "sales_today":
				s.SalesToday, err = decodeDecimal(d)
			case "transactions_today":
				var n int64
				n, err = decodeInt(d)
				s.TransactionsToday = int(n)
			case "average_ticket":
				s.AverageTicket, err = decodeDecimal(d)
			case "sales_this_month":
				s.SalesThisMonth, err = decodeDecimal(d)
			default:
				return d.Skip()
			}
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TopProducts returns up to limit best sellers.
func (r *Dashboard) TopProducts(ctx context.Context, limit int) ([]dashboard.TopProduct, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out []dashboard.TopProduct
	err := r.c.do(ctx, request{method: http.MethodGet, path: "/api/dashboard/top-products", query: q}, func(d *jx.Decoder) error {
		return decodeArray(d, func(d *jx.Decoder) error {
			var tp dashboard.TopProduct
			err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "product_id":
					tp.ProductID, err = decodeInt(d)
				case "name":
					tp.Name, err = decodeString(d)
				case "quantity":
					var n int64
					n, err = decodeInt(d)
					tp.Quantity = int(n)
				case "revenue":
					tp.Revenue, err = decodeDecimal(d)
				default:
					return d.Skip()
				}
				return err
			})
			out = append(out, tp)
			return err
		})
	})
	return out, err
}
