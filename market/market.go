// Package market fetches the price histories and exchange rates a folio
// valuation reads.
//
// Providers return raw daily bars. Fetch fans the requests out and gathers
// them into a Market: one PriceSeries per symbol and a folio.Rates table.
package market

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Provider is a source of daily market data.
type Provider interface {
	// History returns the bars of symbol over rg, priced in currency.
	History(ctx context.Context, symbol, currency string, rg date.Range) (*folio.PriceSeries, error)
	// Rate returns the daily value in base of one unit of currency, as the
	// closes of a series.
	Rate(ctx context.Context, currency, base string, rg date.Range) (*folio.PriceSeries, error)
}

// Request is one history to fetch. A request without Symbol is an
// exchange rate request for Currency.
type Request struct {
	Symbol   string
	Currency string
	Range    date.Range
}

func (r Request) String() string {
	if r.Symbol == "" {
		return fmt.Sprintf("fx %s %v", r.Currency, r.Range)
	}
	return fmt.Sprintf("%s (%s) %v", r.Symbol, r.Currency, r.Range)
}

// Requests lists what a valuation of s over rg in base needs: the history of
// every symbol in its trading currency, and the rates of every currency
// other than base. Rates are requested from the first ledger entry so that
// earlier amounts convert.
func Requests(s *folio.Streams, base string, rg date.Range) []Request {
	span := s.Span()
	if rg.From.IsZero() {
		rg.From = span.From
	}
	if rg.To.IsZero() {
		rg.To = span.To
	}
	fxRange := date.Range{From: date.Min(rg.From, span.From), To: rg.To}

	symbolCurrency := make(map[string]string)
	currencies := make(map[string]bool)
	see := func(symbol string, m folio.Money) {
		cur := m.Currency()
		if cur == "" {
			return
		}
		currencies[cur] = true
		if symbol != "" && symbolCurrency[symbol] == "" {
			symbolCurrency[symbol] = cur
		}
	}
	for _, t := range s.Trades {
		see(t.Symbol, t.Gross)
	}
	for _, e := range s.Corporate {
		see(e.Symbol, e.Merger.Proceeds)
	}
	for _, i := range s.Income {
		see(i.Symbol, i.Amount)
	}
	for _, c := range s.CashFlows {
		see("", c.Amount)
	}

	var reqs []Request
	for _, symbol := range s.Symbols() {
		reqs = append(reqs, Request{Symbol: symbol, Currency: symbolCurrency[symbol], Range: rg})
	}
	var fx []string
	for cur := range currencies {
		if cur != base {
			fx = append(fx, cur)
		}
	}
	slices.Sort(fx)
	for _, cur := range fx {
		reqs = append(reqs, Request{Currency: cur, Range: fxRange})
	}
	return reqs
}

// Market is the fetched data of a valuation.
type Market struct {
	Prices map[string]*folio.PriceSeries
	Rates  *folio.Rates
}

// Fetch runs the requests against p, workers at a time. Failed requests are
// logged and combined in the returned error; the Market holds whatever was
// fetched so that a valuation can still run on the other symbols.
func Fetch(ctx context.Context, p Provider, base string, reqs []Request, workers int, log zerolog.Logger) (*Market, error) {
	m := &Market{Prices: make(map[string]*folio.PriceSeries), Rates: folio.NewRates(base)}
	if workers <= 0 {
		workers = 4
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   *multierror.Error
		tokens = make(chan struct{}, workers)
	)
	for _, req := range reqs {
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			select {
			case tokens <- struct{}{}:
				defer func() { <-tokens }()
			case <-ctx.Done():
				return
			}

			var series *folio.PriceSeries
			var err error
			if req.Symbol == "" {
				series, err = p.Rate(ctx, req.Currency, base, req.Range)
			} else {
				series, err = p.History(ctx, req.Symbol, req.Currency, req.Range)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Stringer("request", req).Msg("market data not fetched")
				errs = multierror.Append(errs, fmt.Errorf("%v: %w", req, err))
				return
			}
			log.Debug().Stringer("request", req).Int("bars", series.Len()).Msg("market data fetched")
			if req.Symbol == "" {
				for _, b := range series.Bars() {
					m.Rates.Add(req.Currency, b.Date, b.Close)
				}
				return
			}
			m.Prices[req.Symbol] = series
		}(req)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m, errs.ErrorOrNil()
}

// assemble turns bars keyed by day into a series. Event only days, a split
// or a dividend without quote, carry the previous close.
func assemble(symbol, currency string, bars map[date.Date]*folio.Bar) *folio.PriceSeries {
	days := make([]date.Date, 0, len(bars))
	for d := range bars {
		days = append(days, d)
	}
	slices.SortFunc(days, date.Date.Compare)

	series := folio.NewPriceSeries(symbol, currency)
	var last decimal.Decimal
	for _, d := range days {
		b := bars[d]
		b.Date = d
		if b.Close.IsZero() {
			if last.IsZero() {
				continue
			}
			b.Open, b.High, b.Low, b.Close = last, last, last, last
		}
		last = b.Close
		series.Add(*b)
	}
	return series
}

// bar returns the bar of day d, creating it.
func bar(bars map[date.Date]*folio.Bar, d date.Date) *folio.Bar {
	b, ok := bars[d]
	if !ok {
		b = &folio.Bar{Date: d}
		bars[d] = b
	}
	return b
}
