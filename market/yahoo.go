package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Yahoo is the Yahoo Finance chart API. Exchange rates use the "USDEUR=X"
// tickers.
type Yahoo struct {
	BaseURL string
	Client  *http.Client
}

// NewYahoo returns a provider using client for every call.
func NewYahoo(client *http.Client) *Yahoo {
	if client == nil {
		client = http.DefaultClient
	}
	return &Yahoo{BaseURL: "https://query1.finance.yahoo.com", Client: client}
}

// History fetches the daily chart of symbol with its dividend and split
// events. The series currency is the one Yahoo reports, if any.
func (y *Yahoo) History(ctx context.Context, symbol, currency string, rg date.Range) (*folio.PriceSeries, error) {
	return y.chart(ctx, symbol, currency, rg)
}

// Rate fetches the currency/base pair.
func (y *Yahoo) Rate(ctx context.Context, currency, base string, rg date.Range) (*folio.PriceSeries, error) {
	s, err := y.chart(ctx, fmt.Sprintf("%s%s=X", currency, base), "", rg)
	if err != nil {
		return nil, err
	}
	s.Currency = base
	return s, nil
}

func (y *Yahoo) chart(ctx context.Context, symbol, currency string, rg date.Range) (*folio.PriceSeries, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("events", "div|split")
	q.Set("period1", strconv.FormatInt(rg.From.Time().Unix(), 10))
	q.Set("period2", strconv.FormatInt(rg.To.Add(1).Time().Unix(), 10))
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.BaseURL, url.PathEscape(symbol), q.Encode())

	var jobj any
	if err := jwget(ctx, y.Client, addr, &jobj); err != nil {
		return nil, fmt.Errorf("cannot fetch %s chart: %w", symbol, err)
	}
	const result = "$.chart.result[0]"
	if c, err := jsonpath.Get(result+".meta.currency", jobj); err == nil {
		if s, ok := c.(string); ok && s != "" {
			currency = s
		}
	}
	offset := 0
	if v, err := jsonpath.Get(result+".meta.gmtoffset", jobj); err == nil {
		if f, ok := v.(float64); ok {
			offset = int(f)
		}
	}
	day := func(ts float64) date.Date {
		return date.FromTime(time.Unix(int64(ts)+int64(offset), 0).UTC())
	}

	stamps, err := list(jobj, result+".timestamp")
	if err != nil {
		return nil, fmt.Errorf("invalid %s chart: %w", symbol, err)
	}
	columns := make(map[string][]any)
	for _, name := range []string{"open", "high", "low", "close", "volume"} {
		if columns[name], err = list(jobj, result+".indicators.quote[0]."+name); err != nil {
			return nil, fmt.Errorf("invalid %s chart: %w", symbol, err)
		}
	}

	bars := make(map[date.Date]*folio.Bar)
	for i, ts := range stamps {
		f, ok := ts.(float64)
		if !ok {
			continue
		}
		b := bar(bars, day(f))
		b.Open = number(columns["open"], i)
		b.High = number(columns["high"], i)
		b.Low = number(columns["low"], i)
		b.Close = number(columns["close"], i)
		b.Volume = number(columns["volume"], i)
	}

	// events are keyed by timestamp and absent when there is none
	if divs, err := jsonpath.Get(result+".events.dividends", jobj); err == nil {
		for _, v := range objects(divs) {
			b := bar(bars, day(field(v, "date").InexactFloat64()))
			b.Dividends = b.Dividends.Add(field(v, "amount"))
		}
	}
	if splits, err := jsonpath.Get(result+".events.splits", jobj); err == nil {
		for _, v := range objects(splits) {
			num, den := field(v, "numerator"), field(v, "denominator")
			if !num.IsPositive() || !den.IsPositive() {
				return nil, fmt.Errorf("invalid %s split %v", symbol, v)
			}
			bar(bars, day(field(v, "date").InexactFloat64())).StockSplits = num.Div(den)
		}
	}
	return assemble(symbol, currency, bars), nil
}

// list returns the array at path.
func list(jobj any, path string) ([]any, error) {
	v, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s is not a list: %T", path, v)
	}
	return l, nil
}

// objects returns the values of a JSON object.
func objects(v any) []map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, e := range m {
		if o, ok := e.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}

func field(o map[string]any, key string) decimal.Decimal {
	f, _ := o[key].(float64)
	return decimal.NewFromFloat(f)
}

// number returns l[i], zero for gaps (null quotes).
func number(l []any, i int) decimal.Decimal {
	if i >= len(l) {
		return decimal.Zero
	}
	f, _ := l[i].(float64)
	return decimal.NewFromFloat(f)
}
