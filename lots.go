package folio

import (
	"github.com/etnz/folio/date"
)

// Lot is a discrete purchased quantity of a symbol, tracked until fully sold.
type Lot struct {
	ID       string
	Symbol   string
	OpenDate date.Date
	Seq      int      // ledger insertion index of the opening trade
	Quantity Quantity // still open
	Cost     Money    // total cost of the open quantity
}

// CostBasisPerUnit returns the cost of one open unit.
func (l Lot) CostBasisPerUnit() Money {
	if l.Quantity.IsZero() {
		return Money{cur: l.Cost.cur}
	}
	return l.Cost.Div(l.Quantity)
}

// Currency returns the lot currency.
func (l Lot) Currency() string { return l.Cost.Currency() }

// Slice is the part of a lot consumed by a sale.
type Slice struct {
	LotID    string
	OpenDate date.Date
	Quantity Quantity
	Cost     Money
	Proceeds Money
}

// Gain returns the realized gain of the slice.
func (s Slice) Gain() Money { return s.Proceeds.Sub(s.Cost) }

// Realization is the outcome of a sale or a merger: lots consumed oldest first.
type Realization struct {
	Symbol   string
	Date     date.Date
	Seq      int
	Quantity Quantity // sold, positive
	Proceeds Money    // net of commission
	Cost     Money
	Slices   []Slice
}

// Gain returns the realized gain, proceeds minus the cost of the consumed lots.
func (r Realization) Gain() Money { return r.Proceeds.Sub(r.Cost) }

// lots is a FIFO queue, oldest lot first.
type lots []Lot

func (l lots) quantity() Quantity {
	var q Quantity
	for _, lot := range l {
		q = q.Add(lot.Quantity)
	}
	return q
}

func (l lots) cost() Money {
	var c Money
	for _, lot := range l {
		c = c.Add(lot.Cost)
	}
	return c
}

// consume removes q units oldest first, spreading proceeds pro rata. The last
// slice takes the remainder so that the slices add up exactly. The caller
// checks that q does not exceed the open quantity.
func (l lots) consume(q Quantity, proceeds Money) (lots, []Slice) {
	var slices []Slice
	remaining := q
	left := proceeds
	out := make(lots, 0, len(l))
	for _, lot := range l {
		if remaining.IsZero() {
			out = append(out, lot)
			continue
		}
		s := Slice{LotID: lot.ID, OpenDate: lot.OpenDate}
		if lot.Quantity.GreaterThan(remaining) {
			s.Quantity = remaining
			s.Cost = lot.Cost.Mul(remaining).Div(lot.Quantity)
			lot.Quantity = lot.Quantity.Sub(remaining)
			lot.Cost = lot.Cost.Sub(s.Cost)
			out = append(out, lot)
		} else {
			s.Quantity = lot.Quantity
			s.Cost = lot.Cost
		}
		remaining = remaining.Sub(s.Quantity)
		if remaining.IsZero() {
			s.Proceeds = left
		} else {
			s.Proceeds = proceeds.Mul(s.Quantity).Div(q)
			left = left.Sub(s.Proceeds)
		}
		slices = append(slices, s)
	}
	return out, slices
}
