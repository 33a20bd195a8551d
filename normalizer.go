package folio

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Streams are the normalized ledger, one disjoint stream per action. Each
// stream is ordered by date then ledger insertion.
type Streams struct {
	Trades    []Trade
	CashFlows []CashFlow
	Income    []Income
	Corporate []CorporateEvent
	Audit     Audit
}

// byLedgerOrder orders rows by date, then by ledger insertion.
func byLedgerOrder(a, b Header) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

func header(c Classified) Header {
	return Header{Date: c.Date, Seq: c.Seq, Symbol: c.Symbol, Type: c.Type}
}

// Normalize checks the sign and shape of every classified row and reshapes
// the log into streams. Nothing is silently corrected: the first violation is
// returned as a typed error.
func Normalize(rows []Classified) (*Streams, error) {
	rows = slices.Clone(rows)
	slices.SortStableFunc(rows, func(a, b Classified) int { return byLedgerOrder(header(a), header(b)) })

	s := new(Streams)
	var corporate []Classified
	for _, r := range rows {
		switch r.Action() {
		case ActionTrade:
			t, err := newTrade(r)
			if err != nil {
				return nil, err
			}
			s.Trades = append(s.Trades, t)
		case ActionCashFlow:
			c, err := newCashFlow(r)
			if err != nil {
				return nil, err
			}
			s.CashFlows = append(s.CashFlows, c)
		case ActionIncome:
			if r.Amount.IsNegative() {
				return nil, &InvalidEntryError{Symbol: r.Symbol, Date: r.Date, Type: r.Type, Reason: fmt.Sprintf("income amount %v is negative", r.Amount.Decimal())}
			}
			s.Income = append(s.Income, Income{Header: header(r), Amount: r.Amount})
		case ActionCorporate:
			corporate = append(corporate, r)
		case ActionIgnore:
			s.Audit.Ignored = append(s.Audit.Ignored, r.Transaction)
		default:
			return nil, &InvalidEntryError{Symbol: r.Symbol, Date: r.Date, Type: r.Type, Reason: fmt.Sprintf("unknown action %q", r.Action())}
		}
	}

	events, err := corporateEvents(corporate)
	if err != nil {
		return nil, err
	}
	s.Corporate = events
	return s, nil
}

func newTrade(r Classified) (Trade, error) {
	invalid := func(format string, args ...any) error {
		return &InvalidEntryError{Symbol: r.Symbol, Date: r.Date, Type: r.Type, Reason: fmt.Sprintf(format, args...)}
	}
	switch {
	case r.Symbol == "":
		return Trade{}, invalid("trade without symbol")
	case r.Quantity.IsZero():
		return Trade{}, invalid("trade with zero quantity")
	case r.Commission.IsNegative():
		return Trade{}, invalid("negative commission %v", r.Commission.Decimal())
	}
	cur := r.Currency()
	gross := r.Amount.Abs()
	if gross.IsZero() && !r.Price.IsZero() {
		gross = r.Price.Abs().Mul(r.Quantity.Abs())
	}
	return Trade{
		Header:     header(r),
		Quantity:   r.Quantity,
		Price:      Money{value: r.Price.value, cur: cur},
		Gross:      Money{value: gross.value, cur: cur},
		Commission: Money{value: r.Commission.value, cur: cur},
	}, nil
}

func newCashFlow(r Classified) (CashFlow, error) {
	switch r.Rule.Direction {
	case Deposit:
		if r.Amount.IsNegative() {
			return CashFlow{}, &InvalidCashFlowSignError{Date: r.Date, Type: r.Type, Amount: r.Amount, Direction: Deposit}
		}
	case Withdrawal:
		if r.Amount.IsPositive() {
			return CashFlow{}, &InvalidCashFlowSignError{Date: r.Date, Type: r.Type, Amount: r.Amount, Direction: Withdrawal}
		}
	}
	return CashFlow{Header: header(r), Amount: r.Amount}, nil
}

// corporateEvents groups corporate rows by (date, symbol) and derives one
// event per group. Rows are already in ledger order.
func corporateEvents(rows []Classified) ([]CorporateEvent, error) {
	type key struct {
		on     date.Date
		symbol string
	}
	var keys []key
	groups := make(map[key][]Classified)
	for _, r := range rows {
		k := key{r.Date, r.Symbol}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}

	events := make([]CorporateEvent, 0, len(keys))
	for _, k := range keys {
		e, err := corporateEvent(groups[k])
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func corporateEvent(rows []Classified) (CorporateEvent, error) {
	first := rows[0]
	ambiguous := func(format string, args ...any) error {
		return &AmbiguousCorporateActionError{Symbol: first.Symbol, Date: first.Date, Reason: fmt.Sprintf(format, args...)}
	}
	if first.Symbol == "" {
		return CorporateEvent{}, &InvalidEntryError{Date: first.Date, Type: first.Type, Reason: "corporate action without symbol"}
	}
	kind := first.Rule.kind()
	var positive, negative Quantity
	for _, r := range rows {
		if r.Rule.kind() != kind {
			return CorporateEvent{}, ambiguous("mixes %s and %s rows", kind, r.Rule.kind())
		}
		if r.Quantity.IsPositive() {
			positive = positive.Add(r.Quantity)
		} else {
			negative = negative.Add(r.Quantity.Neg())
		}
	}
	if len(rows) == 1 && first.Quantity.IsZero() {
		return CorporateEvent{}, ambiguous("single row with zero quantity")
	}

	e := CorporateEvent{Header: header(first), Kind: kind}
	switch kind {
	case EventMerger:
		removed := negative.Sub(positive)
		if !removed.IsPositive() {
			return CorporateEvent{}, ambiguous("merger removes %v units", removed)
		}
		cur := first.Currency()
		proceeds := Money{cur: cur}
		for _, r := range rows {
			if c := r.Currency(); c != "" && c != cur {
				return CorporateEvent{}, ambiguous("merger proceeds in both %s and %s", cur, c)
			}
			proceeds = proceeds.Add(Money{value: r.Amount.value.Abs(), cur: cur})
		}
		e.Merger = Merger{Quantity: removed, Proceeds: proceeds}
	default:
		if positive.IsZero() || negative.IsZero() {
			return CorporateEvent{}, ambiguous("split needs both a removed and an added quantity, got -%v/+%v", negative, positive)
		}
		split, ok := rationalize(positive.Div(negative).value)
		if !ok {
			return CorporateEvent{}, ambiguous("split ratio %v/%v is not a simple fraction", positive, negative)
		}
		e.Split = split
	}
	return e, nil
}

const (
	maxSplitDenominator = 1000
	splitTolerance      = 1e-6
)

// rationalize returns the simplest fraction num/den, den <= 1000, within a
// relative tolerance of 1e-6 of ratio.
func rationalize(ratio decimal.Decimal) (Split, bool) {
	if !ratio.IsPositive() {
		return Split{}, false
	}
	tolerance := ratio.Mul(decimal.NewFromFloat(splitTolerance))
	for den := int64(1); den <= maxSplitDenominator; den++ {
		d := decimal.NewFromInt(den)
		num := ratio.Mul(d).Round(0)
		if !num.IsPositive() {
			continue
		}
		if num.Div(d).Sub(ratio).Abs().LessThanOrEqual(tolerance) {
			return Split{Numerator: num.IntPart(), Denominator: den}, true
		}
	}
	return Split{}, false
}

// Symbols returns every symbol traded or subject to a corporate event, sorted.
func (s *Streams) Symbols() []string {
	var symbols []string
	for _, t := range s.Trades {
		symbols = append(symbols, t.Symbol)
	}
	for _, e := range s.Corporate {
		symbols = append(symbols, e.Symbol)
	}
	for _, i := range s.Income {
		if i.Symbol != "" {
			symbols = append(symbols, i.Symbol)
		}
	}
	slices.Sort(symbols)
	return slices.Compact(symbols)
}

// Events returns the trades, corporate events and income of symbol in ledger order.
func (s *Streams) Events(symbol string) []Entry {
	var events []Entry
	for _, t := range s.Trades {
		if t.Symbol == symbol {
			events = append(events, t)
		}
	}
	for _, e := range s.Corporate {
		if e.Symbol == symbol {
			events = append(events, e)
		}
	}
	for _, i := range s.Income {
		if i.Symbol == symbol {
			events = append(events, i)
		}
	}
	slices.SortStableFunc(events, func(a, b Entry) int { return byLedgerOrder(a.Head(), b.Head()) })
	return events
}

// PortfolioIncome returns income entries without symbol, such as interest.
func (s *Streams) PortfolioIncome() []Income {
	var out []Income
	for _, i := range s.Income {
		if i.Symbol == "" {
			out = append(out, i)
		}
	}
	return out
}

// Span returns the range from the first to the last dated entry.
func (s *Streams) Span() date.Range {
	var r date.Range
	extend := func(d date.Date) {
		if r.From.IsZero() || d.Before(r.From) {
			r.From = d
		}
		if r.To.IsZero() || d.After(r.To) {
			r.To = d
		}
	}
	for _, t := range s.Trades {
		extend(t.Date)
	}
	for _, c := range s.CashFlows {
		extend(c.Date)
	}
	for _, i := range s.Income {
		extend(i.Date)
	}
	for _, e := range s.Corporate {
		extend(e.Date)
	}
	return r
}
