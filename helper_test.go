package folio

import (
	"github.com/etnz/folio/date"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// day is a shorthand for date.MustParse.
func day(s string) date.Date { return date.MustParse(s) }

// tx builds a ledger row in USD.
func tx(on, typ, symbol string, quantity, price, amount, commission float64) Transaction {
	return Transaction{
		Date:       day(on),
		Type:       typ,
		Symbol:     symbol,
		Quantity:   Q(quantity),
		Price:      USD(price),
		Amount:     USD(amount),
		Commission: USD(commission),
	}
}

// testMapping is a broker style mapping used across the tests.
var testMapping = Mapping{
	"Buy":                {Action: ActionTrade},
	"Sell":               {Action: ActionTrade},
	"Deposit":            {Action: ActionCashFlow, Direction: Deposit},
	"Withdrawal":         {Action: ActionCashFlow, Direction: Withdrawal},
	"Dividend":           {Action: ActionIncome},
	"Interest":           {Action: ActionIncome},
	"Stock Split":        {Action: ActionCorporate},
	"Merger/Acquisition": {Action: ActionCorporate, Event: EventMerger},
	"FX Fee":             {Action: ActionIgnore},
}
