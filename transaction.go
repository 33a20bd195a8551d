package folio

import (
	"github.com/etnz/folio/date"
)

// Transaction is a raw ledger row as exported by a broker.
//
// Amount sign encodes the cash direction, negative is an outflow. Commission
// is a magnitude. Price, Amount and Commission share the row currency.
type Transaction struct {
	Date        date.Date
	Type        string
	Symbol      string
	Quantity    Quantity
	Price       Money
	Amount      Money
	Commission  Money
	Description string
	Exchange    string
	Source      string
	// Seq is the insertion index in the ledger, it breaks ties between rows of the same day.
	Seq int
}

// Currency returns the currency of the row.
func (t Transaction) Currency() string {
	for _, m := range []Money{t.Amount, t.Price, t.Commission} {
		if m.Currency() != "" {
			return m.Currency()
		}
	}
	return ""
}
