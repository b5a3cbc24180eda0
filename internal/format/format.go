// Package format renders money and timestamps for the terminal screens.
package format

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats amounts in a single currency for a single locale.
type Formatter struct {
	unit    currency.Unit
	symbol  string
	scale   int
	printer *message.Printer
	group   string
	point   string
	loc     *time.Location
}

// Config selects the currency and locale.
type Config struct {
	// Currency is an ISO 4217 code such as "PHP".
	Currency string
	// Symbol is prefixed to amounts. Empty means the ISO code and a space.
	Symbol string
	// Locale is a BCP 47 tag controlling digit grouping, e.g. "en-PH".
	Locale string
	// TimeZone is an IANA zone name. Empty means the local zone.
	TimeZone string
}

// New validates cfg and returns a Formatter.
func New(cfg Config) (*Formatter, error) {
	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return nil, errors.Wrapf(err, "parse currency %q", cfg.Currency)
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, errors.Wrapf(err, "parse locale %q", cfg.Locale)
	}

	loc := time.Local
	if cfg.TimeZone != "" {
		loc, err = time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, errors.Wrapf(err, "load time zone %q", cfg.TimeZone)
		}
	}

	symbol := cfg.Symbol
	if symbol == "" {
		symbol = unit.String() + " "
	}
	scale, _ := currency.Standard.Rounding(unit)

	printer := message.NewPrinter(tag)
	return &Formatter{
		unit:    unit,
		symbol:  symbol,
		scale:   scale,
		printer: printer,
		group:   separator(printer.Sprint(number.Decimal(1000)), "1", "000", ","),
		point:   separator(printer.Sprint(number.Decimal(1.5, number.Scale(1))), "1", "5", "."),
		loc:     loc,
	}, nil
}

// separator extracts the symbol the locale prints between head and tail,
// falling back to def for locales with non-ASCII digits.
func separator(s, head, tail, def string) string {
	if !strings.HasPrefix(s, head) || !strings.HasSuffix(s, tail) || len(s) < len(head)+len(tail) {
		return def
	}
	return s[len(head) : len(s)-len(tail)]
}

// Money formats d with the currency's standard fraction digits and locale
// digit grouping, e.g. "₱1,234.50". Negative amounts get a leading minus.
func (f *Formatter) Money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(int32(f.scale)), ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(f.symbol)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.group)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(f.point)
		b.WriteString(frac)
	}
	return b.String()
}

// Number formats an integer with locale digit grouping.
func (f *Formatter) Number(n int) string {
	return f.printer.Sprint(number.Decimal(n))
}

// Currency returns the ISO code.
func (f *Formatter) Currency() string {
	return f.unit.String()
}

// DateTime formats t as "Jun 15, 2025 2:30 PM" in the configured zone.
func (f *Formatter) DateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(f.loc).Format("Jan 2, 2006 3:04 PM")
}

// Date formats t as "Jun 15, 2025" in the configured zone.
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(f.loc).Format("Jan 2, 2006")
}

// Location returns the configured zone.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// ParseDate parses user input in YYYY-MM-DD form as midnight in the
// configured zone. Empty input yields the zero time.
func (f *Formatter) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, f.loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse date %q", s)
	}
	return t, nil
}
