package renderer

import (
	"maps"
	"slices"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// notAvailable stands for values that are absent, never for zero.
const notAvailable = "n/a"

// Failure is a symbol, or the portfolio, that could not be processed.
type Failure struct {
	Name  string
	Error string
}

func newFailures(failures map[string]error) []Failure {
	var out []Failure
	for _, name := range slices.Sorted(maps.Keys(failures)) {
		out = append(out, Failure{Name: name, Error: failures[name].Error()})
	}
	return out
}

// HoldingRow is one symbol of a holdings snapshot.
type HoldingRow struct {
	Symbol     string
	Quantity   folio.Quantity
	Cost       folio.Money
	Price      string
	Value      string
	Unrealized string
	Lots       int
}

// Holdings is the holdings snapshot of a day.
type Holdings struct {
	Date     date.Date
	Base     string
	Rows     []HoldingRow
	Total    string
	Deposits string
	Failures []Failure
}

// NewHoldings builds the snapshot of r at the end of the day on.
func NewHoldings(r *folio.Report, on date.Date) *Holdings {
	h := &Holdings{Date: on, Base: r.Base, Total: notAvailable, Deposits: notAvailable, Failures: newFailures(r.Failures)}
	for _, s := range r.Snapshot(on) {
		row := HoldingRow{
			Symbol:     s.Symbol,
			Quantity:   s.Quantity,
			Cost:       s.Cost,
			Price:      notAvailable,
			Value:      notAvailable,
			Unrealized: notAvailable,
			Lots:       s.Lots,
		}
		if s.Priced {
			row.Price = s.Price.String()
			row.Value = s.Value.String()
			row.Unrealized = s.Unrealized.SignedString()
		}
		h.Rows = append(h.Rows, row)
	}
	if r.Portfolio != nil {
		if v, ok := r.Portfolio.Value.At(on); ok {
			h.Total = v.String()
		}
		if d, ok := r.Portfolio.NetDeposits.At(on); ok {
			h.Deposits = d.String()
		}
	}
	return h
}

// GainRow is the gains of a symbol, or of the portfolio, over a period.
type GainRow struct {
	Symbol     string
	Realized   string
	Unrealized string
	Capital    string
	Income     string
	Total      string
}

func newGainRow(g folio.GainRecord) GainRow {
	symbol := g.Symbol
	if symbol == "" {
		symbol = "Total"
	}
	row := GainRow{
		Symbol:     symbol,
		Realized:   g.Realized.SignedString(),
		Unrealized: g.Unrealized.SignedString(),
		Capital:    g.CapitalGains().SignedString(),
		Income:     g.Income.SignedString(),
		Total:      g.Total().SignedString(),
	}
	if g.Unmarked {
		row.Unrealized, row.Capital, row.Total = notAvailable, notAvailable, notAvailable
	}
	return row
}

// GainPeriod is the table of one period.
type GainPeriod struct {
	Range     date.Range
	Rows      []GainRow
	Portfolio GainRow
}

// Gains is a gains report split by period.
type Gains struct {
	Base    string
	Period  string
	Periods []GainPeriod
}

// NewGains groups records, as returned by folio.Report.Gains, by range.
func NewGains(base, period string, records []folio.GainRecord) *Gains {
	g := &Gains{Base: base, Period: period}
	for _, rec := range records {
		if n := len(g.Periods); n == 0 || g.Periods[n-1].Range != rec.Range {
			g.Periods = append(g.Periods, GainPeriod{Range: rec.Range})
		}
		p := &g.Periods[len(g.Periods)-1]
		if rec.Symbol == "" {
			p.Portfolio = newGainRow(rec)
			continue
		}
		p.Rows = append(p.Rows, newGainRow(rec))
	}
	return g
}

// IgnoredType counts the ignored rows of a raw type.
type IgnoredType struct {
	Type  string
	Count int
}

// Audit lists what was not applied as is.
type Audit struct {
	Unmapped   []folio.UnmappedType
	Ignored    []IgnoredType
	Suppressed []folio.SuppressedSplit
	Failures   []Failure
}

// NewAudit builds the audit of a run. unmapped and failures may be empty.
func NewAudit(a folio.Audit, unmapped []folio.UnmappedType, failures map[string]error) *Audit {
	counts := a.IgnoredByType()
	out := &Audit{Unmapped: unmapped, Suppressed: a.Suppressed, Failures: newFailures(failures)}
	for _, t := range slices.Sorted(maps.Keys(counts)) {
		out.Ignored = append(out.Ignored, IgnoredType{Type: t, Count: counts[t]})
	}
	return out
}

// Clean reports whether there is nothing to audit.
func (a *Audit) Clean() bool {
	return len(a.Unmapped) == 0 && len(a.Ignored) == 0 && len(a.Suppressed) == 0 && len(a.Failures) == 0
}

// Comparison is the portfolio against its benchmark over the same window.
// Gains are total gains: realized, unrealized and income for the portfolio,
// final total minus deposits for the benchmark.
type Comparison struct {
	Symbol        string
	Policy        string
	Range         date.Range
	Deposits      string
	Commissions   string
	Dividends     string
	Benchmark     string
	BenchmarkGain string
	Portfolio     string
	PortfolioGain string
	Difference    string
}

// NewComparison compares the simulation b with the valuation r.
func NewComparison(b *folio.Benchmark, r *folio.Report) *Comparison {
	c := &Comparison{
		Symbol:        b.Symbol,
		Policy:        b.Policy.String(),
		Benchmark:     notAvailable,
		BenchmarkGain: notAvailable,
		Portfolio:     notAvailable,
		PortfolioGain: notAvailable,
		Difference:    notAvailable,
	}
	last, ok := b.Last()
	if !ok {
		return c
	}
	c.Range = date.Range{From: b.Days[0].Date, To: last.Date}
	var deposits, commissions folio.Money
	for _, d := range b.Days {
		deposits = deposits.Add(d.Flow)
		commissions = commissions.Add(d.Commission)
	}
	benchmarkGain := last.Total.Sub(deposits)
	c.Deposits = deposits.String()
	c.Commissions = commissions.String()
	c.Dividends = b.Income().String()
	c.Benchmark = last.Total.String()
	c.BenchmarkGain = benchmarkGain.SignedString()
	if r == nil || r.Portfolio == nil {
		return c
	}
	if v, ok := r.Portfolio.Value.At(last.Date); ok {
		c.Portfolio = v.String()
	}
	records := r.GainsOver(c.Range)
	total := records[len(records)-1]
	if total.Unmarked {
		return c
	}
	gain := total.Total()
	c.PortfolioGain = gain.SignedString()
	c.Difference = gain.Sub(benchmarkGain).SignedString()
	return c
}
