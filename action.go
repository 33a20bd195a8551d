package folio

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action is the semantic meaning of a ledger row, whatever the broker called it.
type Action string

const (
	ActionTrade     Action = "trade"
	ActionCashFlow  Action = "cash_flow"
	ActionIncome    Action = "income"
	ActionCorporate Action = "corporate_action"
	ActionIgnore    Action = "ignore"
)

// ParseAction returns the Action named s.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionTrade, ActionCashFlow, ActionIncome, ActionCorporate, ActionIgnore:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q want one of trade, cash_flow, income, corporate_action, ignore", s)
	}
}

// Direction constrains the sign of a cash flow.
type Direction string

const (
	Deposit    Direction = "deposit"    // amount must be positive
	Withdrawal Direction = "withdrawal" // amount must be negative
)

// EventKind qualifies a corporate action.
type EventKind string

const (
	EventSplit  EventKind = "split"
	EventMerger EventKind = "merger"
)

// Rule is what a raw transaction type maps to.
type Rule struct {
	Action    Action    `json:"action"`
	Direction Direction `json:"direction,omitempty"`
	Event     EventKind `json:"event,omitempty"`
}

// kind returns the corporate event kind, splits by default.
func (r Rule) kind() EventKind {
	if r.Event == "" {
		return EventSplit
	}
	return r.Event
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	type rule Rule
	var v rule
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if _, err := ParseAction(string(v.Action)); err != nil {
		return err
	}
	switch v.Direction {
	case "", Deposit, Withdrawal:
	default:
		return fmt.Errorf("unknown direction %q want deposit or withdrawal", v.Direction)
	}
	switch v.Event {
	case "", EventSplit, EventMerger:
	default:
		return fmt.Errorf("unknown corporate event %q want split or merger", v.Event)
	}
	if v.Direction != "" && v.Action != ActionCashFlow {
		return fmt.Errorf("direction %q only applies to cash_flow, not %s", v.Direction, v.Action)
	}
	if v.Event != "" && v.Action != ActionCorporate {
		return fmt.Errorf("event %q only applies to corporate_action, not %s", v.Event, v.Action)
	}
	*r = Rule(v)
	return nil
}

// Mapping maps raw, broker specific, transaction types to their Rule.
// Lookups are exact and case sensitive.
type Mapping map[string]Rule
