package core

// RecordWire is the JSON shape the resource endpoint and the change feed
// exchange: amounts as decimal strings, dates as ISO YYYY-MM-DD.
type RecordWire struct {
	ID       string `json:"id"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Notes    string `json:"notes,omitempty"`
}

// FromWire decodes a wire record leniently: a bad amount becomes 0 cents
// with the record flagged, an unknown category becomes Other. Only a bad
// date is a hard error, since every downstream grouping keys on it.
func FromWire(w RecordWire) (Record, error) {
	d, err := ParseDate(w.Date)
	if err != nil {
		return Record{}, err
	}
	amount, ok := ParseAmount(w.Amount)
	return Record{
		ID:       w.ID,
		Amount:   amount,
		Category: NormalizeCategory(w.Category),
		Date:     d,
		Notes:    w.Notes,
		Flagged:  !ok,
	}, nil
}

// ToWire encodes a record for the resource endpoint or the change feed.
func ToWire(r Record) RecordWire {
	return RecordWire{
		ID:       r.ID,
		Amount:   r.Amount.Decimal(),
		Category: string(r.Category),
		Date:     r.Date.ISO(),
		Notes:    r.Notes,
	}
}
