package folio

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sort"
	"sync"

	"github.com/etnz/folio/date"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// PortfolioFailure is the Failures key of errors not tied to a symbol.
const PortfolioFailure = "(portfolio)"

// Options tune a valuation run.
type Options struct {
	// Workers is the number of symbols valuated in parallel, runtime.NumCPU() by default.
	Workers int
	// Logger receives warnings and per symbol failures. The zero value discards.
	Logger zerolog.Logger
}

// Input is everything a valuation run reads. Nothing in it is modified.
type Input struct {
	Streams *Streams
	Prices  map[string]*PriceSeries
	Rates   *Rates
	// Range is the observation window. A zero From starts at the first ledger
	// entry, a zero To ends at the last one.
	Range date.Range
	Options
}

// GainEvent is a dated amount in base currency.
type GainEvent struct {
	Symbol string
	Date   date.Date
	Amount Money
}

// SymbolReport is the valuation of a single symbol. Every amount is in base
// currency except Price.
type SymbolReport struct {
	Position *Position
	// Price is the forward filled close in the symbol currency.
	Price *date.Series[Money]
	// Value is absent on days without a known close.
	Value *date.Series[Money]
	// Realized and Income are cumulative since the start of the window.
	Realized *date.Series[Money]
	Income   *date.Series[Money]
	// Unrealized is the daily mark of the open lots, absent when held and unpriced.
	Unrealized     *date.Series[Money]
	RealizedEvents []GainEvent
	IncomeEvents   []GainEvent
}

// Held returns the quantity held at the end of the day.
func (s *SymbolReport) Held(on date.Date) Quantity {
	q, _ := s.Position.Holdings.At(on)
	return q
}

// PortfolioReport is the sum of the symbol reports, in base currency.
type PortfolioReport struct {
	// Value is absent on days when a held symbol is not priced.
	Value      *date.Series[Money]
	Realized   *date.Series[Money]
	Unrealized *date.Series[Money]
	// Income includes portfolio level income such as interest.
	Income *date.Series[Money]
	// NetDeposits is the cumulative sum of cash flows.
	NetDeposits  *date.Series[Money]
	IncomeEvents []GainEvent // portfolio level only
	CashFlows    []GainEvent
}

// Report is the outcome of a valuation run.
type Report struct {
	RunID     string
	Base      string
	Range     date.Range
	Symbols   map[string]*SymbolReport
	Portfolio *PortfolioReport
	// Failures holds the error of every symbol that could not be valuated.
	Failures map[string]error
	Audit    Audit
}

// Names returns the successfully valuated symbols, sorted.
func (r *Report) Names() []string {
	names := make([]string, 0, len(r.Symbols))
	for s := range r.Symbols {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

// Err combines every failure, nil if there is none.
func (r *Report) Err() error {
	keys := make([]string, 0, len(r.Failures))
	for k := range r.Failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var errs *multierror.Error
	for _, k := range keys {
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", k, r.Failures[k]))
	}
	return errs.ErrorOrNil()
}

type symbolResult struct {
	symbol string
	report *SymbolReport
	err    error
}

// Valuate reconstructs and values every symbol of the ledger in parallel,
// then rolls them up into the portfolio.
//
// A symbol that fails is reported in Report.Failures and left out of the
// portfolio; the others are still valuated. The returned error is only for
// unusable input or a cancelled context.
func Valuate(ctx context.Context, in Input) (*Report, error) {
	if in.Streams == nil {
		return nil, errors.New("no ledger to valuate")
	}
	if in.Rates == nil {
		return nil, errors.New("no fx rates to valuate with")
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
		return nil, fmt.Errorf("empty observation window %v", window)
	}

	report := &Report{
		RunID:    uuid.NewString(),
		Base:     in.Rates.Base(),
		Range:    window,
		Symbols:  make(map[string]*SymbolReport),
		Failures: make(map[string]error),
		Audit:    in.Streams.Audit,
	}
	log := in.Logger.With().Str("run", report.RunID).Logger()

	workers := in.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	symbols := in.Streams.Symbols()
	jobs := make(chan string)
	results := make(chan symbolResult, len(symbols))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				sr, err := valuateSymbol(in, symbol, window, log)
				results <- symbolResult{symbol: symbol, report: sr, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, s := range symbols {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			log.Error().Err(res.err).Str("symbol", res.symbol).Msg("symbol valuation failed")
			report.Failures[res.symbol] = res.err
			continue
		}
		report.Symbols[res.symbol] = res.report
		report.Audit.Suppressed = append(report.Audit.Suppressed, res.report.Position.Suppressed...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.SortFunc(report.Audit.Suppressed, func(a, b SuppressedSplit) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})

	portfolio, err := rollup(in, report)
	if err != nil {
		log.Error().Err(err).Msg("portfolio cash flows could not be converted")
		report.Failures[PortfolioFailure] = err
	}
	report.Portfolio = portfolio
	log.Debug().Int("symbols", len(report.Symbols)).Int("failures", len(report.Failures)).
		Stringer("window", window).Msg("valuation done")
	return report, nil
}

func valuateSymbol(in Input, symbol string, window date.Range, log zerolog.Logger) (*SymbolReport, error) {
	history := in.Prices[symbol]
	pos, err := Reconstruct(symbol, in.Streams.Events(symbol), history, window, log)
	if err != nil {
		return nil, err
	}
	if history != nil && history.Currency != "" && pos.Currency != history.Currency {
		return nil, fmt.Errorf("%s is priced in %s but traded in %s", symbol, history.Currency, pos.Currency)
	}

	rates := in.Rates
	base := rates.Base()
	sr := &SymbolReport{
		Position:   pos,
		Price:      date.NewSeries[Money](window),
		Value:      date.NewSeries[Money](window),
		Realized:   date.NewSeries[Money](window),
		Income:     date.NewSeries[Money](window),
		Unrealized: date.NewSeries[Money](window),
	}

	for _, r := range pos.Realized {
		gain, err := rates.Convert(r.Gain(), r.Date)
		if err != nil {
			return nil, err
		}
		sr.RealizedEvents = append(sr.RealizedEvents, GainEvent{Symbol: symbol, Date: r.Date, Amount: gain})
	}
	for _, i := range pos.Income {
		amount, err := rates.Convert(i.Amount, i.Date)
		if err != nil {
			return nil, err
		}
		sr.IncomeEvents = append(sr.IncomeEvents, GainEvent{Symbol: symbol, Date: i.Date, Amount: amount})
	}

	realized, income := Money{cur: base}, Money{cur: base}
	nextRealized, nextIncome := 0, 0
	for day := range window.Days() {
		for ; nextRealized < len(sr.RealizedEvents) && !sr.RealizedEvents[nextRealized].Date.After(day); nextRealized++ {
			realized = realized.Add(sr.RealizedEvents[nextRealized].Amount)
		}
		for ; nextIncome < len(sr.IncomeEvents) && !sr.IncomeEvents[nextIncome].Date.After(day); nextIncome++ {
			income = income.Add(sr.IncomeEvents[nextIncome].Amount)
		}
		sr.Realized.Set(day, realized)
		sr.Income.Set(day, income)

		held, _ := pos.Holdings.At(day)
		var price Money
		priced := false
		if history != nil {
			price, priced = history.Close(day)
		}
		if !priced {
			if held.IsZero() {
				sr.Unrealized.Set(day, Money{cur: base})
			}
			continue
		}
		sr.Price.Set(day, price)
		if held.IsZero() {
			sr.Value.Set(day, Money{cur: base})
			sr.Unrealized.Set(day, Money{cur: base})
			continue
		}
		cost, _ := pos.OpenCost.At(day)
		value, err := rates.Convert(price.Mul(held), day)
		if err != nil {
			return nil, err
		}
		unrealized, err := rates.Convert(price.Mul(held).Sub(cost), day)
		if err != nil {
			return nil, err
		}
		sr.Value.Set(day, value)
		sr.Unrealized.Set(day, unrealized)
	}
	return sr, nil
}

// rollup sums the symbol reports into the portfolio series.
func rollup(in Input, report *Report) (*PortfolioReport, error) {
	window, base := report.Range, report.Base
	p := &PortfolioReport{
		Value:       date.NewSeries[Money](window),
		Realized:    date.NewSeries[Money](window),
		Unrealized:  date.NewSeries[Money](window),
		Income:      date.NewSeries[Money](window),
		NetDeposits: date.NewSeries[Money](window),
	}
	var errs *multierror.Error
	for _, c := range in.Streams.CashFlows {
		amount, err := in.Rates.Convert(c.Amount, c.Date)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		p.CashFlows = append(p.CashFlows, GainEvent{Date: c.Date, Amount: amount})
	}
	for _, i := range in.Streams.PortfolioIncome() {
		amount, err := in.Rates.Convert(i.Amount, i.Date)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		p.IncomeEvents = append(p.IncomeEvents, GainEvent{Date: i.Date, Amount: amount})
	}

	names := report.Names()
	deposits, interest := Money{cur: base}, Money{cur: base}
	nextFlow, nextIncome := 0, 0
	for day := range window.Days() {
		for ; nextFlow < len(p.CashFlows) && !p.CashFlows[nextFlow].Date.After(day); nextFlow++ {
			deposits = deposits.Add(p.CashFlows[nextFlow].Amount)
		}
		for ; nextIncome < len(p.IncomeEvents) && !p.IncomeEvents[nextIncome].Date.After(day); nextIncome++ {
			interest = interest.Add(p.IncomeEvents[nextIncome].Amount)
		}
		p.NetDeposits.Set(day, deposits)

		value, realized, unrealized, income := Money{cur: base}, Money{cur: base}, Money{cur: base}, interest
		valued, marked := true, true
		for _, name := range names {
			s := report.Symbols[name]
			r, _ := s.Realized.At(day)
			i, _ := s.Income.At(day)
			realized, income = realized.Add(r), income.Add(i)
			if s.Held(day).IsZero() {
				continue
			}
			if v, ok := s.Value.At(day); ok {
				value = value.Add(v)
			} else {
				valued = false
			}
			if u, ok := s.Unrealized.At(day); ok {
				unrealized = unrealized.Add(u)
			} else {
				marked = false
			}
		}
		p.Realized.Set(day, realized)
		p.Income.Set(day, income)
		if valued {
			p.Value.Set(day, value)
		}
		if marked {
			p.Unrealized.Set(day, unrealized)
		}
	}
	return p, errs.ErrorOrNil()
}

// Holding is one line of a holdings snapshot.
type Holding struct {
	Symbol     string
	Quantity   Quantity
	Cost       Money // open lots cost, symbol currency
	Price      Money // last close, symbol currency
	Priced     bool
	Value      Money // base currency, when priced
	Unrealized Money // base currency, when priced
	Lots       int
}

// Snapshot returns the symbols held at the end of the day.
func (r *Report) Snapshot(on date.Date) []Holding {
	var out []Holding
	for _, name := range r.Names() {
		s := r.Symbols[name]
		q, ok := s.Position.Holdings.At(on)
		if !ok || q.IsZero() {
			continue
		}
		h := Holding{Symbol: name, Quantity: q}
		h.Cost, _ = s.Position.OpenCost.At(on)
		h.Price, h.Priced = s.Price.At(on)
		h.Value, _ = s.Value.At(on)
		h.Unrealized, _ = s.Unrealized.At(on)
		if on == r.Range.To {
			h.Lots = len(s.Position.Lots)
		}
		out = append(out, h)
	}
	return out
}
