package folio

import (
	"fmt"

	"github.com/etnz/folio/date"
	"github.com/rs/zerolog"
)

// Position is the reconstructed history of a single symbol.
type Position struct {
	Symbol   string
	Currency string
	// Holdings is the quantity held at the end of each day of the axis.
	Holdings *date.Series[Quantity]
	// OpenCost is the total cost of the open lots at the end of each day.
	OpenCost   *date.Series[Money]
	Realized   []Realization
	Income     []Income
	Lots       []Lot // open at the end of the axis
	Suppressed []SuppressedSplit
}

// Reconstruct replays the events of symbol over every day of axis.
//
// On each day, splits are applied first, then trades and mergers in ledger
// order. A split reported by the price history wins over a ledger split of
// the same day; the ledger one is suppressed, logged and returned in
// Position.Suppressed. Events dated before the axis are replayed day by day
// from the first of them, only the days of the axis are recorded. Events
// after the axis are ignored. history may be nil.
func Reconstruct(symbol string, events []Entry, history *PriceSeries, axis date.Range, log zerolog.Logger) (*Position, error) {
	book := NewBook(symbol)
	p := &Position{
		Symbol:   symbol,
		Holdings: date.NewSeries[Quantity](axis),
		OpenCost: date.NewSeries[Money](axis),
	}
	if history != nil {
		p.Currency = history.Currency
	}

	// replay from the first event so that earlier days keep their order
	replay := axis
	if len(events) > 0 && events[0].Head().Date.Before(replay.From) {
		replay.From = events[0].Head().Date
	}
	next := 0
	for day := range replay.Days() {
		var today []Entry
		for ; next < len(events) && !events[next].Head().Date.After(day); next++ {
			today = append(today, events[next])
		}

		if err := p.applySplits(book, day, today, history, log); err != nil {
			return nil, err
		}
		for _, e := range today {
			if err := p.apply(book, e); err != nil {
				return nil, err
			}
		}
		if axis.Contains(day) {
			p.Holdings.Set(day, book.OpenQuantity())
			p.OpenCost.Set(day, book.OpenCost())
		}
	}
	if book.Currency() != "" {
		p.Currency = book.Currency()
	}
	p.Lots = book.Lots()
	return p, nil
}

func (p *Position) applySplits(book *Book, day date.Date, today []Entry, history *PriceSeries, log zerolog.Logger) error {
	var provider Split
	var fromProvider bool
	if history != nil {
		provider, fromProvider = history.Split(day)
	}
	for _, e := range today {
		ev, ok := e.(CorporateEvent)
		if !ok || ev.Kind != EventSplit {
			continue
		}
		if fromProvider && ev.Date == day {
			s := SuppressedSplit{Symbol: p.Symbol, Date: ev.Date, Ledger: ev.Split, Provider: provider}
			p.Suppressed = append(p.Suppressed, s)
			log.Warn().Str("symbol", p.Symbol).Stringer("date", ev.Date).
				Stringer("ledger", ev.Split).Stringer("provider", provider).
				Msg("ledger split suppressed, provider split applied")
			continue
		}
		if err := book.Split(ev.Split); err != nil {
			return err
		}
	}
	if fromProvider {
		return book.Split(provider)
	}
	return nil
}

func (p *Position) apply(book *Book, e Entry) error {
	switch e := e.(type) {
	case Trade:
		if e.IsBuy() {
			return book.Buy(e)
		}
		r, err := book.Sell(e)
		if err != nil {
			return err
		}
		p.Realized = append(p.Realized, r)
	case CorporateEvent:
		if e.Kind != EventMerger {
			return nil // splits are applied first
		}
		r, err := book.Merge(e)
		if err != nil {
			return err
		}
		p.Realized = append(p.Realized, r)
	case Income:
		p.Income = append(p.Income, e)
	default:
		return fmt.Errorf("unexpected %s entry for %s", e.Action(), p.Symbol)
	}
	return nil
}
