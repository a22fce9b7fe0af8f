package core

// Range is an inclusive [Start, End] date window. A zero bound means
// unbounded on that side, so the zero Range matches everything.
type Range struct {
	Start Date
	End   Date
}

// Contains reports whether the date falls inside the range, bounds included.
func (r Range) Contains(d Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// IsZero reports whether both bounds are unset.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Filter returns the records whose dates fall inside the range, preserving
// input order. The input slice is never mutated.
func (r Range) Filter(records []Record) []Record {
	if r.IsZero() {
		out := make([]Record, len(records))
		copy(out, records)
		return out
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out
}
