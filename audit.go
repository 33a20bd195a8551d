package folio

import (
	"github.com/etnz/folio/date"
)

// SuppressedSplit records a ledger split that was not applied because the
// price provider already reported a split for the same symbol and day.
type SuppressedSplit struct {
	Symbol   string
	Date     date.Date
	Ledger   Split
	Provider Split
}

// Audit keeps track of what the engine did not apply as is.
type Audit struct {
	Ignored    []Transaction
	Suppressed []SuppressedSplit
}

// IgnoredCount returns the number of rows classified as ignore.
func (a Audit) IgnoredCount() int { return len(a.Ignored) }

// IgnoredByType counts ignored rows per raw type.
func (a Audit) IgnoredByType() map[string]int {
	counts := make(map[string]int)
	for _, t := range a.Ignored {
		counts[t.Type]++
	}
	return counts
}
