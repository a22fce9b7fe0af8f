package core

import (
	"errors"
	"strings"
)

const (
	Food     Category = "Food"
	Travel   Category = "Travel"
	Bills    Category = "Bills"
	Shopping Category = "Shopping"
	Other    Category = "Other"
)

type (
	Category string

	// Record is one user-entered spending entry. The id is assigned by the
	// resource service, never by this client.
	Record struct {
		ID       string
		Amount   Money
		Category Category
		Date     Date
		Notes    string

		// Flagged marks a record whose amount failed to parse on ingest.
		// Such records carry 0 cents and are counted, never dropped.
		Flagged bool
	}
)

var (
	ErrEmptyID       = errors.New("empty record id")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// Categories lists the known categories in display order.
func Categories() []Category {
	return []Category{Food, Travel, Bills, Shopping, Other}
}

// NormalizeCategory maps free-form category text onto the known set.
// Unrecognized values become Other; they are tolerated, never rejected.
func NormalizeCategory(s string) Category {
	switch Category(strings.TrimSpace(s)) {
	case Food:
		return Food
	case Travel:
		return Travel
	case Bills:
		return Bills
	case Shopping:
		return Shopping
	case Other:
		return Other
	}
	return Other
}

// Validate checks a record on the write path. The read path is lenient
// instead: see FromWire.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if r.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(r.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	return nil
}
