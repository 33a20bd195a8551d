package date

import "iter"

// Series is a dense mapping from every day of a Range to an optional value.
// Days never set are absent, which is distinct from a zero value.
type Series[T any] struct {
	r      Range
	values []T
	set    []bool
}

// NewSeries returns an empty series covering every day of r.
func NewSeries[T any](r Range) *Series[T] {
	n := r.Len()
	return &Series[T]{r: r, values: make([]T, n), set: make([]bool, n)}
}

// Range returns the observation window of the series.
func (s *Series[T]) Range() Range { return s.r }

// Len returns the number of days in the window.
func (s *Series[T]) Len() int { return len(s.values) }

func (s *Series[T]) index(d Date) (int, bool) {
	if !s.r.Contains(d) {
		return 0, false
	}
	return s.r.From.DaysUntil(d), true
}

// Set records v on day d. Days outside the window are ignored and reported as false.
func (s *Series[T]) Set(d Date, v T) bool {
	i, ok := s.index(d)
	if !ok {
		return false
	}
	s.values[i], s.set[i] = v, true
	return true
}

// Clear makes day d absent again.
func (s *Series[T]) Clear(d Date) {
	if i, ok := s.index(d); ok {
		var zero T
		s.values[i], s.set[i] = zero, false
	}
}

// At returns the value on day d, false if absent or out of the window.
func (s *Series[T]) At(d Date) (T, bool) {
	var zero T
	i, ok := s.index(d)
	if !ok || !s.set[i] {
		return zero, false
	}
	return s.values[i], true
}

// Values iterates over every day of the window, present or not.
func (s *Series[T]) Values() iter.Seq2[Date, Optional[T]] {
	return func(yield func(Date, Optional[T]) bool) {
		for i := range s.values {
			d := s.r.From.Add(i)
			if !yield(d, Optional[T]{Value: s.values[i], Valid: s.set[i]}) {
				return
			}
		}
	}
}

// Last returns the last present value on or before d within the window.
func (s *Series[T]) Last(d Date) (T, Date, bool) {
	var zero T
	if d.After(s.r.To) {
		d = s.r.To
	}
	i, ok := s.index(d)
	if !ok {
		return zero, Date{}, false
	}
	for ; i >= 0; i-- {
		if s.set[i] {
			return s.values[i], s.r.From.Add(i), true
		}
	}
	return zero, Date{}, false
}

// Optional is a value that may be absent.
type Optional[T any] struct {
	Value T
	Valid bool
}
