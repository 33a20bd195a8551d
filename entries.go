package folio

import (
	"fmt"

	"github.com/etnz/folio/date"
)

// Header is the part common to every entry.
type Header struct {
	Date   date.Date
	Seq    int    // ledger insertion index
	Symbol string // empty for portfolio level entries
	Type   string // raw ledger type, kept for error reporting
}

func (h Header) Head() Header { return h }

// Entry is a normalized ledger entry: a Trade, a CashFlow, an Income or a
// CorporateEvent.
type Entry interface {
	Action() Action
	Head() Header
}

// Trade is a buy (positive Quantity) or a sell (negative Quantity).
type Trade struct {
	Header
	Quantity   Quantity
	Price      Money
	Gross      Money // cash exchanged for the units, commission excluded, never negative
	Commission Money // never negative
}

func (Trade) Action() Action { return ActionTrade }

// IsBuy reports whether the trade adds units.
func (t Trade) IsBuy() bool { return t.Quantity.IsPositive() }

// Cost is the total cost of a buy, commission included.
func (t Trade) Cost() Money { return t.Gross.Add(t.Commission) }

// Proceeds is the net cash received on a sell, commission deducted.
func (t Trade) Proceeds() Money { return t.Gross.Sub(t.Commission) }

// CashFlow is a deposit (positive Amount) or a withdrawal (negative Amount).
type CashFlow struct {
	Header
	Amount Money
}

func (CashFlow) Action() Action { return ActionCashFlow }

// Income is a dividend or interest payment, net as supplied.
type Income struct {
	Header
	Amount Money
}

func (Income) Action() Action { return ActionIncome }

// Split is a quantity ratio: every unit becomes Numerator/Denominator units.
type Split struct {
	Numerator   int64
	Denominator int64
}

func (s Split) String() string { return fmt.Sprintf("%d:%d", s.Numerator, s.Denominator) }

// IsIdentity reports whether the split leaves quantities unchanged.
func (s Split) IsIdentity() bool { return s.Numerator == s.Denominator }

// Merger is a forced sale of Quantity units for Proceeds.
type Merger struct {
	Quantity Quantity // units removed, positive
	Proceeds Money
}

// CorporateEvent is either a Split or a Merger, derived once from the paired
// corporate action rows of one symbol and day.
type CorporateEvent struct {
	Header
	Kind   EventKind
	Split  Split  // when Kind is EventSplit
	Merger Merger // when Kind is EventMerger
}

func (CorporateEvent) Action() Action { return ActionCorporate }
