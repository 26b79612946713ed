package availability

import "sort"

// DateSet is a set of calendar-day strings (YYYY-MM-DD)
type DateSet map[string]struct{}

// NewDateSet creates a set from the given dates
func NewDateSet(dates ...string) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

// Has reports whether the date is in the set
func (s DateSet) Has(date string) bool {
	_, ok := s[date]
	return ok
}

// Add inserts the date into the set
func (s DateSet) Add(date string) {
	s[date] = struct{}{}
}

// Len returns the number of dates in the set
func (s DateSet) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set
func (s DateSet) Clone() DateSet {
	out := make(DateSet, len(s))
	for d := range s {
		out[d] = struct{}{}
	}
	return out
}

// Sorted returns the dates in ascending order. The ISO day layout sorts
// chronologically as plain strings.
func (s DateSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
