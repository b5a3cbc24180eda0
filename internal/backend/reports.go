package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/jx"

	"github.com/xenking/brew-pos/internal/domain/report"
)

var _ report.Repository = (*Reports)(nil)

// Reports is the analytics endpoint set.
type Reports struct{ c *Client }

// Reports returns the analytics endpoints.
func (c *Client) Reports() *Reports { return &Reports{c: c} }

// Fetch returns the rows of q's report over [q.From, q.To).
func (r *Reports) Fetch(ctx context.Context, q report.Query) ([]report.Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	setTime(params, "from", q.From)
	setTime(params, "to", q.To)

	var out []report.Row
	err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/reports/" + string(q.Kind),
		query:  params,
	}, func(d *jx.Decoder) error {
		return decodeArray(d, func(d *jx.Decoder) error {
			var row report.Row
			err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "key":
					row.Key, err = decodeKey(d)
				case "label":
					row.Label, err = decodeString(d)
				case "transactions":
					var n int64
					n, err = decodeInt(d)
					row.Transactions = int(n)
				case "quantity":
					var n int64
					n, err = decodeInt(d)
					row.Quantity = int(n)
				case "revenue":
					row.Revenue, err = decodeDecimal(d)
				default:
					return d.Skip()
				}
				return err
			})
			out = append(out, row)
			return err
		})
	})
	return out, err
}
