package market

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// Dir reads user provided CSV files from a directory: "<symbol>.csv" for
// prices and "<currency><base>.csv" for exchange rates, both in the
// Date,Open,High,Low,Close,Volume,Dividends,StockSplits layout.
type Dir string

// History reads <symbol>.csv. Bars outside rg are dropped.
func (d Dir) History(ctx context.Context, symbol, currency string, rg date.Range) (*folio.PriceSeries, error) {
	return d.read(symbol, symbol, currency, rg)
}

// Rate reads <currency><base>.csv, e.g. USDEUR.csv.
func (d Dir) Rate(ctx context.Context, currency, base string, rg date.Range) (*folio.PriceSeries, error) {
	return d.read(currency+base, currency+base, base, rg)
}

func (d Dir) read(name, symbol, currency string, rg date.Range) (*folio.PriceSeries, error) {
	f, err := os.Open(filepath.Join(string(d), name+".csv"))
	if err != nil {
		return nil, fmt.Errorf("no price file for %s: %w", symbol, err)
	}
	defer f.Close()
	all, err := folio.DecodePrices(f, symbol, currency)
	if err != nil {
		return nil, err
	}
	if rg.From.IsZero() && rg.To.IsZero() {
		return all, nil
	}
	// keep the last bar before the range so that its close carries forward
	s := folio.NewPriceSeries(symbol, currency)
	var before *folio.Bar
	for _, b := range all.Bars() {
		switch {
		case b.Date.Before(rg.From):
			before = &b
		case !rg.To.IsZero() && b.Date.After(rg.To):
		default:
			s.Add(b)
		}
	}
	if before != nil {
		s.Add(folio.Bar{Date: before.Date, Open: before.Open, High: before.High, Low: before.Low, Close: before.Close})
	}
	return s, nil
}
