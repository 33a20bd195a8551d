package folio

import (
	"fmt"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Rates converts amounts to and from a base currency.
//
// Each currency has a sparse history of rates, expressed as base units for
// one unit of the currency. Rates are forward filled, never backward. Rates
// is safe for concurrent reads once populated.
type Rates struct {
	base      string
	histories map[string]*date.History[decimal.Decimal]

	// MaxGap, when positive, is the maximum number of days a rate is carried
	// forward.
	MaxGap int
}

// NewRates returns an empty rate table for the base currency.
func NewRates(base string) *Rates {
	return &Rates{base: base, histories: make(map[string]*date.History[decimal.Decimal])}
}

// Base returns the base currency.
func (r *Rates) Base() string { return r.base }

// Currencies returns the currencies with at least one rate.
func (r *Rates) Currencies() []string {
	out := make([]string, 0, len(r.histories))
	for c := range r.histories {
		out = append(out, c)
	}
	return out
}

// Add records the value in base currency of one unit of currency.
func (r *Rates) Add(currency string, on date.Date, rate decimal.Decimal) {
	h, ok := r.histories[currency]
	if !ok {
		h = new(date.History[decimal.Decimal])
		r.histories[currency] = h
	}
	h.Append(on, rate)
}

// AddPair records a quote of the pair from/to: one unit of from is worth
// rate units of to. One side must be the base currency; an inverse pair is
// inverted.
func (r *Rates) AddPair(from, to string, on date.Date, rate decimal.Decimal) error {
	switch {
	case to == r.base:
		r.Add(from, on, rate)
	case from == r.base:
		if rate.IsZero() {
			return fmt.Errorf("zero %s%s rate on %s", from, to, on)
		}
		r.Add(to, on, decimal.NewFromInt(1).Div(rate))
	default:
		return fmt.Errorf("pair %s%s does not involve base currency %s", from, to, r.base)
	}
	return nil
}

// Rate returns the value in base currency of one unit of currency on a day.
// The empty currency is that of rows without amounts, DecodeLedger rejects
// any other row without a currency.
func (r *Rates) Rate(currency string, on date.Date) (decimal.Decimal, error) {
	if currency == r.base || currency == "" {
		return decimal.NewFromInt(1), nil
	}
	missing := &MissingFxRateError{Currency: currency, Base: r.base, Date: on}
	h, ok := r.histories[currency]
	if !ok {
		return decimal.Zero, missing
	}
	rate, at, ok := h.LastBefore(on)
	if !ok || (r.MaxGap > 0 && at.DaysUntil(on) > r.MaxGap) {
		return decimal.Zero, missing
	}
	return rate, nil
}

// Convert returns m in base currency using the rate of the day.
func (r *Rates) Convert(m Money, on date.Date) (Money, error) {
	rate, err := r.Rate(m.Currency(), on)
	if err != nil {
		return Money{}, err
	}
	return m.Rate(rate, r.base), nil
}

// FromBase converts an amount in base currency into currency.
func (r *Rates) FromBase(m Money, currency string, on date.Date) (Money, error) {
	if m.Currency() != "" && m.Currency() != r.base {
		return Money{}, fmt.Errorf("%v is not in base currency %s", m, r.base)
	}
	rate, err := r.Rate(currency, on)
	if err != nil {
		return Money{}, err
	}
	return Money{value: m.value.Div(rate), cur: currency}, nil
}
