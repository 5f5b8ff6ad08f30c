package numeric

import "sort"

// Set is a flat set of normalized numbers. Only membership matters.
type Set map[float64]struct{}

// NewSet returns a set holding the normalized values.
func NewSet(values ...float64) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts the normalized form of v.
func (s Set) Add(v float64) {
	s[Normalize(v)] = struct{}{}
}

// Contains reports whether the normalized form of v is present.
func (s Set) Contains(v float64) bool {
	_, ok := s[Normalize(v)]
	return ok
}

// ContainsAny reports whether any of the values is present.
func (s Set) ContainsAny(values ...float64) bool {
	for _, v := range values {
		if s.Contains(v) {
			return true
		}
	}
	return false
}

// Merge adds every member of other to s.
func (s Set) Merge(other Set) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Len returns the number of members.
func (s Set) Len() int { return len(s) }

// Values returns the members in ascending order.
func (s Set) Values() []float64 {
	out := make([]float64, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

// Equal reports whether both sets hold the same members.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}
