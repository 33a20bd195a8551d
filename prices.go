package folio

import (
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Bar is one trading day of a symbol's price history.
//
// Dividends is the cash paid per unit that day and StockSplits the split
// ratio effective that day (2 for a 2-for-1), zero meaning no event.
type Bar struct {
	Date        date.Date
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      decimal.Decimal
	Dividends   decimal.Decimal
	StockSplits decimal.Decimal
}

// PriceSeries is the sparse price history of a symbol, trading days only.
//
// Closes are forward filled on demand. Dividends and splits are events: they
// are only ever read on their exact day.
type PriceSeries struct {
	Symbol   string
	Currency string
	bars     date.History[Bar]
}

// NewPriceSeries returns an empty series for symbol priced in currency.
func NewPriceSeries(symbol, currency string) *PriceSeries {
	return &PriceSeries{Symbol: symbol, Currency: currency}
}

// Add records a bar, replacing any bar of the same day.
func (p *PriceSeries) Add(b Bar) *PriceSeries {
	p.bars.Append(b.Date, b)
	return p
}

// AddClose is a shorthand for a bar with only a closing price.
func (p *PriceSeries) AddClose(on date.Date, close decimal.Decimal) *PriceSeries {
	return p.Add(Bar{Date: on, Open: close, High: close, Low: close, Close: close})
}

// Len returns the number of trading days.
func (p *PriceSeries) Len() int { return p.bars.Len() }

// Bars iterates over the trading days in chronological order.
func (p *PriceSeries) Bars() []Bar {
	out := make([]Bar, 0, p.bars.Len())
	for _, b := range p.bars.Values() {
		out = append(out, b)
	}
	return out
}

// Bar returns the bar of a trading day.
func (p *PriceSeries) Bar(on date.Date) (Bar, bool) { return p.bars.Get(on) }

// First returns the first trading day, zero if empty.
func (p *PriceSeries) First() date.Date {
	d, _ := p.bars.First()
	return d
}

// Close returns the last close on or before the day. There is no close
// before the first trading day.
func (p *PriceSeries) Close(on date.Date) (Money, bool) {
	b, ok := p.bars.ValueAsOf(on)
	if !ok || b.Close.IsZero() {
		return Money{}, false
	}
	return Money{value: b.Close, cur: p.Currency}, true
}

// Open returns the open of a trading day, falling back to its close.
func (p *PriceSeries) Open(on date.Date) (Money, bool) {
	b, ok := p.bars.Get(on)
	if !ok {
		return Money{}, false
	}
	v := b.Open
	if v.IsZero() {
		v = b.Close
	}
	if v.IsZero() {
		return Money{}, false
	}
	return Money{value: v, cur: p.Currency}, true
}

// Split returns the split effective on that exact day.
func (p *PriceSeries) Split(on date.Date) (Split, bool) {
	b, ok := p.bars.Get(on)
	if !ok || !b.StockSplits.IsPositive() || b.StockSplits.Equal(decimal.NewFromInt(1)) {
		return Split{}, false
	}
	return rationalize(b.StockSplits)
}

// Dividend returns the dividend per unit paid on that exact day.
func (p *PriceSeries) Dividend(on date.Date) (Money, bool) {
	b, ok := p.bars.Get(on)
	if !ok || !b.Dividends.IsPositive() {
		return Money{}, false
	}
	return Money{value: b.Dividends, cur: p.Currency}, true
}

// Splits returns every split of the history keyed by day.
func (p *PriceSeries) Splits() map[date.Date]Split {
	out := make(map[date.Date]Split)
	for on := range p.bars.Values() {
		if s, ok := p.Split(on); ok {
			out[on] = s
		}
	}
	return out
}
