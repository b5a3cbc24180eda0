package backend

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Timestamp layouts accepted from the backend, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// decodeDecimal reads a JSON number or numeric string. Null is zero.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Null:
		return decimal.Zero, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		if strings.TrimSpace(s) == "" {
			return decimal.Zero, nil
		}
		v, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "parse decimal %q", s)
		}
		return v, nil
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		v, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "parse decimal %q", n.String())
		}
		return v, nil
	}
}

// decodeInt reads a JSON integer or numeric string. Null is zero.
func decodeInt(d *jx.Decoder) (int64, error) {
	switch d.Next() {
	case jx.Null:
		return 0, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse integer %q", s)
		}
		return v, nil
	default:
		return d.Int64()
	}
}

// decodeBool reads a JSON boolean or a 0/1 integer. Null is false.
func decodeBool(d *jx.Decoder) (bool, error) {
	switch d.Next() {
	case jx.Null:
		return false, d.Null()
	case jx.Number:
		v, err := d.Int64()
		return v != 0, err
	default:
		return d.Bool()
	}
}

// decodeString reads a JSON string. Null is "".
func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodeTime reads a timestamp string. Null and "" are the zero time.
func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := decodeString(d)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("parse time %q", s)
}

// decodeArray reads an array, calling item for each element. Null is an
// empty array.
func decodeArray(d *jx.Decoder, item func(d *jx.Decoder) error) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Arr(item)
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// setTime adds t to q as RFC 3339 unless it is the zero time.
func setTime(q url.Values, key string, t time.Time) {
	if !t.IsZero() {
		q.Set(key, t.Format(time.RFC3339))
	}
}

// decodeKey reads a grouping key that may be a string or a number.
func decodeKey(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Number {
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	}
	return decodeString(d)
}
