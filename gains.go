package folio

import (
	"github.com/etnz/folio/date"
)

// GainRecord aggregates the gains of a symbol over a range, in base currency.
// Symbol is empty for the whole portfolio.
type GainRecord struct {
	Symbol string
	Range  date.Range
	// Realized is the sum of gains realized by sales and mergers within the range.
	Realized Money
	// Unrealized is the change of the open lots mark over the range.
	Unrealized Money
	// Income is the dividends and interest received within the range.
	Income Money
	// Unmarked is set when a held symbol has no price at either end of the
	// range. Unrealized is then zero and must not be read.
	Unmarked bool
}

// CapitalGains returns realized plus unrealized gains. Income is kept apart.
func (g GainRecord) CapitalGains() Money { return g.Realized.Add(g.Unrealized) }

// Total returns capital gains plus income.
func (g GainRecord) Total() Money { return g.CapitalGains().Add(g.Income) }

// Gains folds the report into records per period, one for each symbol and one
// for the portfolio, periods in chronological order. The first and last
// periods are clipped to the report window.
func (r *Report) Gains(p date.Period) []GainRecord {
	var out []GainRecord
	for _, chunk := range r.Range.Split(p) {
		out = append(out, r.GainsOver(chunk)...)
	}
	return out
}

// GainsOver returns the records of every symbol over rg, followed by the
// portfolio record.
func (r *Report) GainsOver(rg date.Range) []GainRecord {
	zero := Money{cur: r.Base}
	total := GainRecord{Range: rg, Realized: zero, Unrealized: zero, Income: zero}
	var out []GainRecord
	for _, name := range r.Names() {
		s := r.Symbols[name]
		g := GainRecord{
			Symbol:     name,
			Range:      rg,
			Realized:   sumWithin(s.RealizedEvents, rg, zero),
			Unrealized: zero,
			Income:     sumWithin(s.IncomeEvents, rg, zero),
		}
		end, endOK := markAt(s.Unrealized, rg.To, zero)
		start, startOK := markAt(s.Unrealized, rg.From.Add(-1), zero)
		if endOK && startOK {
			g.Unrealized = end.Sub(start)
		} else {
			g.Unmarked = true
			total.Unmarked = true
		}
		total.Realized = total.Realized.Add(g.Realized)
		total.Unrealized = total.Unrealized.Add(g.Unrealized)
		total.Income = total.Income.Add(g.Income)
		out = append(out, g)
	}
	if r.Portfolio != nil {
		total.Income = total.Income.Add(sumWithin(r.Portfolio.IncomeEvents, rg, zero))
	}
	return append(out, total)
}

func sumWithin(events []GainEvent, rg date.Range, sum Money) Money {
	for _, e := range events {
		if rg.Contains(e.Date) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// markAt returns the mark at the end of the day, zero before the window and
// the last one after it. It is absent on days a held symbol is unpriced.
func markAt(s *date.Series[Money], on date.Date, zero Money) (Money, bool) {
	rg := s.Range()
	if on.Before(rg.From) {
		return zero, true
	}
	if on.After(rg.To) {
		on = rg.To
	}
	m, ok := s.At(on)
	if !ok {
		return zero, false
	}
	return m, true
}
