package folio

import (
	"fmt"

	"github.com/google/uuid"
)

// Book is the FIFO lot ledger of a single symbol.
//
// A failed operation leaves the book untouched.
type Book struct {
	symbol   string
	currency string
	lots     lots
}

// NewBook returns an empty book for symbol.
func NewBook(symbol string) *Book { return &Book{symbol: symbol} }

func (b *Book) Symbol() string   { return b.symbol }
func (b *Book) Currency() string { return b.currency }

// OpenQuantity returns the sum of the open lots quantities.
func (b *Book) OpenQuantity() Quantity { return b.lots.quantity() }

// OpenCost returns the total cost of the open lots.
func (b *Book) OpenCost() Money { return Money{value: b.lots.cost().value, cur: b.currency} }

// Lots returns a copy of the open lots, oldest first.
func (b *Book) Lots() []Lot { return append([]Lot(nil), b.lots...) }

// Unrealized marks the open lots at price: Σ (price - cost per unit) × quantity.
func (b *Book) Unrealized(price Money) Money {
	return price.Mul(b.OpenQuantity()).Sub(b.OpenCost())
}

func (b *Book) checkCurrency(h Header, currency string) error {
	if b.currency == "" || currency == "" || currency == b.currency {
		return nil
	}
	return &InvalidEntryError{Symbol: b.symbol, Date: h.Date, Type: h.Type,
		Reason: fmt.Sprintf("traded in %s while the position is held in %s", currency, b.currency)}
}

// Buy opens a new lot. Same day buys stay distinct lots.
func (b *Book) Buy(t Trade) error {
	if !t.IsBuy() {
		return &InvalidEntryError{Symbol: b.symbol, Date: t.Date, Type: t.Type, Reason: "buy with a non positive quantity"}
	}
	cost := t.Cost()
	if err := b.checkCurrency(t.Header, cost.Currency()); err != nil {
		return err
	}
	if b.currency == "" {
		b.currency = cost.Currency()
	}
	b.lots = append(b.lots, Lot{
		ID:       uuid.NewString(),
		Symbol:   b.symbol,
		OpenDate: t.Date,
		Seq:      t.Seq,
		Quantity: t.Quantity,
		Cost:     cost,
	})
	return nil
}

// Sell consumes the open lots oldest first and returns the realized slices.
func (b *Book) Sell(t Trade) (Realization, error) {
	if t.IsBuy() {
		return Realization{}, &InvalidEntryError{Symbol: b.symbol, Date: t.Date, Type: t.Type, Reason: "sell with a positive quantity"}
	}
	if err := b.checkCurrency(t.Header, t.Gross.Currency()); err != nil {
		return Realization{}, err
	}
	return b.remove(t.Header, t.Quantity.Abs(), t.Proceeds())
}

// Merge is a forced sale of the merged quantity at the stated proceeds.
func (b *Book) Merge(e CorporateEvent) (Realization, error) {
	if e.Kind != EventMerger {
		return Realization{}, &InvalidEntryError{Symbol: b.symbol, Date: e.Date, Type: e.Type, Reason: "not a merger"}
	}
	if err := b.checkCurrency(e.Header, e.Merger.Proceeds.Currency()); err != nil {
		return Realization{}, err
	}
	return b.remove(e.Header, e.Merger.Quantity, e.Merger.Proceeds)
}

func (b *Book) remove(h Header, q Quantity, proceeds Money) (Realization, error) {
	if held := b.OpenQuantity(); q.GreaterThan(held) {
		return Realization{}, &OversoldPositionError{Symbol: b.symbol, Date: h.Date, Quantity: q, Held: held}
	}
	proceeds = Money{value: proceeds.value, cur: b.currency}
	remaining, slices := b.lots.consume(q, proceeds)
	b.lots = remaining
	r := Realization{Symbol: b.symbol, Date: h.Date, Seq: h.Seq, Quantity: q, Proceeds: proceeds, Cost: Money{cur: b.currency}, Slices: slices}
	for _, s := range slices {
		r.Cost = r.Cost.Add(s.Cost)
	}
	return r, nil
}

// Split rescales every open lot quantity by the split ratio. Lot costs are
// unchanged, so the cost per unit is rescaled inversely.
func (b *Book) Split(s Split) error {
	if s.Numerator <= 0 || s.Denominator <= 0 {
		return fmt.Errorf("invalid split ratio %v for %s", s, b.symbol)
	}
	for i := range b.lots {
		b.lots[i].Quantity = b.lots[i].Quantity.scale(s.Numerator, s.Denominator)
	}
	return nil
}

