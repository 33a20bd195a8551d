package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// EODHD is the eodhd.com end of day API.
//
// Symbols are EODHD tickers, "AAPL.US" or "MC.PA". Exchange rates come from
// the FOREX exchange, "USDEUR.FOREX".
type EODHD struct {
	Key     string
	BaseURL string
	Client  *http.Client
}

// NewEODHD returns a provider for the API key, using client for every call.
func NewEODHD(key string, client *http.Client) *EODHD {
	if client == nil {
		client = http.DefaultClient
	}
	return &EODHD{Key: key, BaseURL: "https://eodhd.com/api", Client: client}
}

func (e *EODHD) addr(endpoint, ticker string, rg date.Range) string {
	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("api_token", e.Key)
	q.Set("from", rg.From.String())
	q.Set("to", rg.To.String())
	return fmt.Sprintf("%s/%s/%s?%s", e.BaseURL, endpoint, url.PathEscape(ticker), q.Encode())
}

// History fetches quotes, splits and dividends of the ticker.
func (e *EODHD) History(ctx context.Context, symbol, currency string, rg date.Range) (*folio.PriceSeries, error) {
	bars := make(map[date.Date]*folio.Bar)
	if err := e.quotes(ctx, symbol, rg, bars, 0); err != nil {
		return nil, err
	}
	if err := e.splits(ctx, symbol, rg, bars); err != nil {
		return nil, err
	}
	if err := e.dividends(ctx, symbol, rg, bars); err != nil {
		return nil, err
	}
	return assemble(symbol, currency, bars), nil
}

// Rate fetches the currency/base pair.
//
// The close of the FOREX exchange is mostly equal to its open, the open of
// the next day is closer to the actual daily close, so that one is used.
func (e *EODHD) Rate(ctx context.Context, currency, base string, rg date.Range) (*folio.PriceSeries, error) {
	ticker := fmt.Sprintf("%s%s.FOREX", currency, base)
	shifted := date.Range{From: rg.From.Add(1), To: rg.To.Add(1)}
	bars := make(map[date.Date]*folio.Bar)
	if err := e.quotes(ctx, ticker, shifted, bars, -1); err != nil {
		return nil, err
	}
	for _, b := range bars {
		b.Close = b.Open
	}
	return assemble(ticker, base, bars), nil
}

func (e *EODHD) quotes(ctx context.Context, ticker string, rg date.Range, bars map[date.Date]*folio.Bar, shift int) error {
	// [{"date": "2024-02-13", "open": 675.066, "high": 684.219, "low": 648.659,
	//   "close": 668.445, "adjusted_close": 67.705, "volume": 0}, ...]
	type quote struct {
		Date   date.Date       `json:"date"`
		Open   decimal.Decimal `json:"open"`
		High   decimal.Decimal `json:"high"`
		Low    decimal.Decimal `json:"low"`
		Close  decimal.Decimal `json:"close"`
		Volume decimal.Decimal `json:"volume"`
	}
	var content []quote
	if err := jwget(ctx, e.Client, e.addr("eod", ticker, rg), &content); err != nil {
		return fmt.Errorf("cannot fetch %s quotes: %w", ticker, err)
	}
	for _, q := range content {
		b := bar(bars, q.Date.Add(shift))
		b.Open, b.High, b.Low, b.Close, b.Volume = q.Open, q.High, q.Low, q.Close, q.Volume
	}
	return nil
}

func (e *EODHD) splits(ctx context.Context, ticker string, rg date.Range, bars map[date.Date]*folio.Bar) error {
	// [{"date": "2020-08-31", "split": "4.000000/1.000000"}]
	type split struct {
		Date  date.Date `json:"date"`
		Split string    `json:"split"`
	}
	var content []split
	if err := jwget(ctx, e.Client, e.addr("splits", ticker, rg), &content); err != nil {
		return fmt.Errorf("cannot fetch %s splits: %w", ticker, err)
	}
	for _, s := range content {
		ratio, err := parseRatio(s.Split)
		if err != nil {
			return fmt.Errorf("invalid %s split on %v: %w", ticker, s.Date, err)
		}
		bar(bars, s.Date).StockSplits = ratio
	}
	return nil
}

func (e *EODHD) dividends(ctx context.Context, ticker string, rg date.Range, bars map[date.Date]*folio.Bar) error {
	// the date is the ex-dividend date
	type dividend struct {
		Date  date.Date       `json:"date"`
		Value decimal.Decimal `json:"value"`
	}
	var content []dividend
	if err := jwget(ctx, e.Client, e.addr("div", ticker, rg), &content); err != nil {
		return fmt.Errorf("cannot fetch %s dividends: %w", ticker, err)
	}
	for _, d := range content {
		b := bar(bars, d.Date)
		b.Dividends = b.Dividends.Add(d.Value)
	}
	return nil
}

// parseRatio reads a "new/old" split ratio.
func parseRatio(s string) (decimal.Decimal, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return decimal.Zero, fmt.Errorf("ratio %q is not new/old", s)
	}
	n, err := decimal.NewFromString(strings.TrimSpace(num))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid numerator in %q: %w", s, err)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(den))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid denominator in %q: %w", s, err)
	}
	if !n.IsPositive() || !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("ratio %q is not positive", s)
	}
	return n.Div(d), nil
}
