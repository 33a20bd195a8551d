package folio

import (
	"github.com/etnz/folio/date"
)

// Classified is a ledger row annotated with the rule its raw type maps to.
type Classified struct {
	Transaction
	Rule Rule
}

// Action returns the classified action.
func (c Classified) Action() Action { return c.Rule.Action }

// Classify annotates every transaction with its Rule.
//
// It fails on the first row whose raw type is not in the mapping, naming the
// type and the date so that the mapping can be extended.
func Classify(mapping Mapping, txs []Transaction) ([]Classified, error) {
	out := make([]Classified, 0, len(txs))
	for _, t := range txs {
		rule, ok := mapping[t.Type]
		if !ok {
			return nil, &UnmappedTransactionTypeError{Type: t.Type, Date: t.Date}
		}
		out = append(out, Classified{Transaction: t, Rule: rule})
	}
	return out, nil
}

// UnmappedType summarizes the rows of one raw type missing from a mapping.
type UnmappedType struct {
	Type  string
	First date.Date
	Count int
}

// Unmapped lists every raw type of txs that is not in m, in order of first appearance.
func (m Mapping) Unmapped(txs []Transaction) []UnmappedType {
	var out []UnmappedType
	index := make(map[string]int)
	for _, t := range txs {
		if _, ok := m[t.Type]; ok {
			continue
		}
		i, seen := index[t.Type]
		if !seen {
			index[t.Type] = len(out)
			out = append(out, UnmappedType{Type: t.Type, First: t.Date, Count: 1})
			continue
		}
		out[i].Count++
		if t.Date.Before(out[i].First) {
			out[i].First = t.Date
		}
	}
	return out
}
