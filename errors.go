package folio

import (
	"errors"
	"fmt"

	"github.com/etnz/folio/date"
)

var (
	ErrUnmappedTransactionType  = errors.New("unmapped transaction type")
	ErrInvalidCashFlowSign      = errors.New("invalid cash flow sign")
	ErrOversoldPosition         = errors.New("oversold position")
	ErrMissingFxRate            = errors.New("missing fx rate")
	ErrAmbiguousCorporateAction = errors.New("ambiguous corporate action")
	ErrInvalidEntry             = errors.New("invalid entry")
)

// UnmappedTransactionTypeError reports a raw type absent from the mapping.
type UnmappedTransactionTypeError struct {
	Type string
	Date date.Date
}

func (e *UnmappedTransactionTypeError) Error() string {
	return fmt.Sprintf("%s: transaction type %q on %s is not in the mapping", ErrUnmappedTransactionType, e.Type, e.Date)
}

func (e *UnmappedTransactionTypeError) Is(target error) bool { return target == ErrUnmappedTransactionType }

// InvalidCashFlowSignError reports a cash flow whose amount contradicts its direction.
type InvalidCashFlowSignError struct {
	Date      date.Date
	Type      string
	Amount    Money
	Direction Direction
}

func (e *InvalidCashFlowSignError) Error() string {
	return fmt.Sprintf("%s: %q on %s is a %s but amount is %v", ErrInvalidCashFlowSign, e.Type, e.Date, e.Direction, e.Amount.Decimal())
}

func (e *InvalidCashFlowSignError) Is(target error) bool { return target == ErrInvalidCashFlowSign }

// OversoldPositionError reports a sale larger than the open quantity.
type OversoldPositionError struct {
	Symbol   string
	Date     date.Date
	Quantity Quantity // requested
	Held     Quantity
}

func (e *OversoldPositionError) Error() string {
	return fmt.Sprintf("%s: cannot remove %v %s on %s, only %v held", ErrOversoldPosition, e.Quantity, e.Symbol, e.Date, e.Held)
}

func (e *OversoldPositionError) Is(target error) bool { return target == ErrOversoldPosition }

// MissingFxRateError reports the lack of a rate on or before Date.
type MissingFxRateError struct {
	Currency string
	Base     string
	Date     date.Date
}

func (e *MissingFxRateError) Error() string {
	return fmt.Sprintf("%s: no %s%s rate on or before %s", ErrMissingFxRate, e.Currency, e.Base, e.Date)
}

func (e *MissingFxRateError) Is(target error) bool { return target == ErrMissingFxRate }

// AmbiguousCorporateActionError reports corporate action rows that cannot be
// turned into a single event.
type AmbiguousCorporateActionError struct {
	Symbol string
	Date   date.Date
	Reason string
}

func (e *AmbiguousCorporateActionError) Error() string {
	return fmt.Sprintf("%s: %s on %s: %s", ErrAmbiguousCorporateAction, e.Symbol, e.Date, e.Reason)
}

func (e *AmbiguousCorporateActionError) Is(target error) bool {
	return target == ErrAmbiguousCorporateAction
}

// InvalidEntryError reports a row whose shape does not fit its action.
type InvalidEntryError struct {
	Symbol string
	Date   date.Date
	Type   string
	Reason string
}

func (e *InvalidEntryError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: %q on %s: %s", ErrInvalidEntry, e.Type, e.Date, e.Reason)
	}
	return fmt.Sprintf("%s: %q %s on %s: %s", ErrInvalidEntry, e.Type, e.Symbol, e.Date, e.Reason)
}

func (e *InvalidEntryError) Is(target error) bool { return target == ErrInvalidEntry }
