package date

import (
	"iter"
	"slices"
)

// History stores a chronological series of sparse observations, each
// associated with a specific date. Dates are unique and always sorted.
type History[T any] struct {
	days   []Date
	values []T
}

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero value.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, value
	}
	return h.days[last], h.values[last]
}

// First returns the earliest date and value in the history.
func (h *History[T]) First() (day Date, value T) {
	if len(h.days) == 0 {
		return Date{}, value
	}
	return h.days[0], h.values[0]
}

// Len returns the number of observations.
func (h *History[T]) Len() int { return len(h.days) }

func (h *History[T]) search(day Date) (int, bool) {
	return slices.BinarySearchFunc(h.days, day, Date.Compare)
}

// Append records a value on a day. An existing value at that date is
// overwritten, the last write wins.
func (h *History[T]) Append(on Date, v T) *History[T] {
	i, found := h.search(on)
	if found {
		h.values[i] = v
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, v)
	return h
}

// Values returns an iterator over all date/value pairs in the history, in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Days returns the observation days in chronological order.
func (h *History[T]) Days() []Date { return slices.Clone(h.days) }

// Get returns the value observed exactly on 'day'.
func (h *History[T]) Get(day Date) (T, bool) {
	var value T
	if i, found := h.search(day); found {
		return h.values[i], true
	}
	return value, false
}

// ValueAsOf returns the value on a given day, or the most recent value before it.
// It returns the value and true if found, otherwise it returns the zero value and false.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	v, _, ok := h.LastBefore(day)
	return v, ok
}

// LastBefore is like ValueAsOf but also returns the day of the observation used.
func (h *History[T]) LastBefore(day Date) (T, Date, bool) {
	var zero T
	i, found := h.search(day)
	if found {
		return h.values[i], h.days[i], true
	}
	// i is the insertion point, the last observation before day sits at i-1.
	if i == 0 {
		return zero, Date{}, false
	}
	return h.values[i-1], h.days[i-1], true
}

// Between iterates over the observations within r, in chronological order.
func (h *History[T]) Between(r Range) iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		i, _ := h.search(r.From)
		for ; i < len(h.days) && !h.days[i].After(r.To); i++ {
			if !yield(h.days[i], h.values[i]) {
				return
			}
		}
	}
}
