package folio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// MergerPolicy tells whether merger proceeds are reinvested in the benchmark.
type MergerPolicy int

const (
	// MergersExcluded ignores merger proceeds: only deposits and withdrawals
	// move cash in and out of the benchmark.
	MergersExcluded MergerPolicy = iota
	// MergersAsInflows treats merger proceeds as a deposit on the merger day.
	MergersAsInflows
)

func (p MergerPolicy) String() string {
	if p == MergersAsInflows {
		return "include"
	}
	return "exclude"
}

// ParseMergerPolicy accepts "include" and "exclude".
func ParseMergerPolicy(s string) (MergerPolicy, error) {
	switch strings.ToLower(s) {
	case "", "exclude", "excluded":
		return MergersExcluded, nil
	case "include", "included", "inflow", "inflows":
		return MergersAsInflows, nil
	default:
		return MergersExcluded, fmt.Errorf("unknown merger policy %q want include or exclude", s)
	}
}

// Fees is the commission model of the simulated broker, in base currency:
// a proportional Rate with a Flat minimum.
type Fees struct {
	Flat decimal.Decimal
	Rate decimal.Decimal
}

// buy returns the amount actually invested out of cash and the commission.
func (f Fees) buy(cash decimal.Decimal) (net, commission decimal.Decimal) {
	if cash.LessThanOrEqual(f.Flat) {
		return decimal.Zero, decimal.Zero
	}
	if f.Rate.IsPositive() {
		net = cash.Div(decimal.NewFromInt(1).Add(f.Rate))
		if net.GreaterThanOrEqual(f.Flat.Div(f.Rate)) {
			return net, cash.Sub(net)
		}
	}
	return cash.Sub(f.Flat), f.Flat
}

// sell returns the gross sale needed to raise cash and the commission.
func (f Fees) sell(cash decimal.Decimal) (gross, commission decimal.Decimal) {
	if !cash.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	one := decimal.NewFromInt(1)
	if f.Rate.IsPositive() && f.Rate.LessThan(one) && cash.GreaterThan(f.Flat.Div(f.Rate).Sub(f.Flat)) {
		gross = cash.Div(one.Sub(f.Rate))
		return gross, gross.Sub(cash)
	}
	return cash.Add(f.Flat), f.Flat
}

// BenchmarkInput configures a benchmark simulation.
type BenchmarkInput struct {
	Streams   *Streams
	Benchmark *PriceSeries
	Rates     *Rates
	// Range defaults to the ledger span.
	Range           date.Range
	Fees            Fees
	DividendTaxRate decimal.Decimal
	Mergers         MergerPolicy
}

// BenchmarkDay is the state of the simulated portfolio at the end of a day.
// Amounts are in base currency.
type BenchmarkDay struct {
	Date         date.Date
	Flow         Money // deposits minus withdrawals of the day
	Shares       Quantity
	TradeCash    Money
	DividendCash Money
	Commission   Money
	NetDividend  Money
	Value        Money // shares at the last close
	Total        Money // value plus cash
}

// Benchmark is the day by day simulation.
type Benchmark struct {
	Symbol string
	Policy MergerPolicy
	Days   []BenchmarkDay
}

// Last returns the final day of the simulation.
func (b *Benchmark) Last() (BenchmarkDay, bool) {
	if len(b.Days) == 0 {
		return BenchmarkDay{}, false
	}
	return b.Days[len(b.Days)-1], true
}

// Income returns the net dividends collected over the simulation.
func (b *Benchmark) Income() Money {
	var sum Money
	for _, d := range b.Days {
		sum = sum.Add(d.NetDividend)
	}
	return sum
}

// SimulateBenchmark replays the ledger net deposits into a single benchmark
// security: deposits are invested at the next open, withdrawals are raised
// by selling at the next open, dividends are taxed and reinvested with the
// next deposit. Net deposits made before the window are invested on its
// first day.
func SimulateBenchmark(in BenchmarkInput) (*Benchmark, error) {
	if in.Streams == nil || in.Benchmark == nil || in.Rates == nil {
		return nil, errors.New("benchmark needs a ledger, a price history and fx rates")
	}
	window := in.Range
	span := in.Streams.Span()
	if window.From.IsZero() {
		window.From = span.From
	}
	if window.To.IsZero() {
		window.To = span.To
	}
	if window.From.IsZero() || window.IsEmpty() {
		return nil, fmt.Errorf("empty benchmark window %v", window)
	}
	base := in.Rates.Base()

	// flows before the window open it as cash on its first day
	flows := make(map[date.Date]decimal.Decimal)
	for _, c := range in.Streams.CashFlows {
		m, err := in.Rates.Convert(c.Amount, c.Date)
		if err != nil {
			return nil, err
		}
		on := date.Max(c.Date, window.From)
		flows[on] = flows[on].Add(m.value)
	}
	if in.Mergers == MergersAsInflows {
		for _, e := range in.Streams.Corporate {
			if e.Kind != EventMerger {
				continue
			}
			m, err := in.Rates.Convert(e.Merger.Proceeds, e.Date)
			if err != nil {
				return nil, err
			}
			on := date.Max(e.Date, window.From)
			flows[on] = flows[on].Add(m.value)
		}
	}

	const (
		idle = iota
		buying
		selling
	)
	var (
		shares, tradeCash, divCash decimal.Decimal
		trigger                    = idle
		keep                       = decimal.NewFromInt(1).Sub(in.DividendTaxRate)
		b                          = &Benchmark{Symbol: in.Benchmark.Symbol, Policy: in.Mergers}
	)
	for day := range window.Days() {
		d := BenchmarkDay{Date: day}
		_, open := in.Benchmark.Bar(day)

		if div, ok := in.Benchmark.Dividend(day); ok && shares.IsPositive() {
			m, err := in.Rates.Convert(div, day)
			if err != nil {
				return nil, err
			}
			net := m.value.Mul(shares).Mul(keep)
			d.NetDividend = Money{value: net, cur: base}
			divCash = divCash.Add(net)
		}

		if flow := flows[day]; !flow.IsZero() {
			d.Flow = Money{value: flow, cur: base}
			tradeCash = tradeCash.Add(flow)
			if flow.IsPositive() {
				trigger = buying
			} else {
				trigger = selling
			}
		}

		if open && trigger != idle {
			price, ok := in.Benchmark.Open(day)
			if ok {
				p, err := in.Rates.Convert(price, day)
				if err != nil {
					return nil, err
				}
				switch trigger {
				case buying:
					net, commission := in.Fees.buy(tradeCash.Add(divCash))
					if net.IsPositive() {
						shares = shares.Add(net.Div(p.value))
						tradeCash, divCash = decimal.Zero, decimal.Zero
						d.Commission = Money{value: commission, cur: base}
					}
				case selling:
					needed := tradeCash.Neg()
					fromDividends := decimal.Min(decimal.Max(needed, decimal.Zero), divCash)
					divCash = divCash.Sub(fromDividends)
					tradeCash = tradeCash.Add(fromDividends)
					if rest := needed.Sub(fromDividends); rest.IsPositive() {
						gross, commission := in.Fees.sell(rest)
						sold := decimal.Min(gross.Div(p.value), shares)
						shares = shares.Sub(sold)
						tradeCash = tradeCash.Add(sold.Mul(p.value).Sub(commission))
						d.Commission = Money{value: commission, cur: base}
					}
				}
			}
			trigger = idle
		}

		d.Shares = Quantity{value: shares}
		d.TradeCash = Money{value: tradeCash, cur: base}
		d.DividendCash = Money{value: divCash, cur: base}
		d.Value = Money{cur: base}
		if last, ok := in.Benchmark.Close(day); ok && shares.IsPositive() {
			m, err := in.Rates.Convert(last.Mul(d.Shares), day)
			if err != nil {
				return nil, err
			}
			d.Value = m
		}
		d.Total = d.Value.Add(d.TradeCash).Add(d.DividendCash)
		b.Days = append(b.Days, d)
	}
	return b, nil
}
