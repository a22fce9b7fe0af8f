package core

import (
	"time"
)

// isoDate is the wire format of all calendar dates: zero-padded ISO,
// no timezone.
const isoDate = "2006-01-02"

// Date is a calendar date. It wraps time.Time truncated to midnight UTC so
// comparisons stay calendar comparisons rather than lexicographic ones.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO renders the date back to YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format(isoDate)
}

// MonthKey returns the YYYY-MM grouping key.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// Before reports whether d falls strictly before other on the calendar.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls strictly after other on the calendar.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}
