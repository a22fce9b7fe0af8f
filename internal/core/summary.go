package core

import "sort"

// CategoryAmount is an amount aggregated per category, in first-seen order.
type CategoryAmount struct {
	Category Category
	Amount   Money
	Count    int
}

// PeriodAmount is an amount aggregated per calendar period key
// (YYYY-MM for months, YYYY-MM-DD for days).
type PeriodAmount struct {
	Period string
	Amount Money
}

// Summary is the full dashboard aggregate, recomputed deterministically
// from the filtered record list alone.
type Summary struct {
	Count   int
	Flagged int // records whose amount could not be parsed upstream

	Total   Money
	Average Money
	Max     Money

	ByCategory []CategoryAmount // first-seen category order
	ByMonth    []PeriodAmount   // ascending by YYYY-MM key
	ByDay      []PeriodAmount   // ascending by date key

	TopBySum   Category // empty when no records
	TopByCount Category // empty when no records
}

// Summarize computes the dashboard aggregate for the given records.
// It has no hidden state: equal inputs always produce equal summaries.
func Summarize(records []Record) Summary {
	s := Summary{Count: len(records)}
	if len(records) == 0 {
		return s
	}

	catIndex := make(map[Category]int)
	months := make(map[string]int64)
	days := make(map[string]int64)

	for _, r := range records {
		if r.Flagged {
			s.Flagged++
		}
		cents := r.Amount.Cents
		s.Total.Cents += cents
		if cents > s.Max.Cents {
			s.Max.Cents = cents
		}

		cat := NormalizeCategory(string(r.Category))
		i, ok := catIndex[cat]
		if !ok {
			i = len(s.ByCategory)
			catIndex[cat] = i
			s.ByCategory = append(s.ByCategory, CategoryAmount{Category: cat})
		}
		s.ByCategory[i].Amount.Cents += cents
		s.ByCategory[i].Count++

		months[r.Date.MonthKey()] += cents
		days[r.Date.ISO()] += cents
	}

	s.Average.Cents = s.Total.Cents / int64(s.Count)
	s.ByMonth = sortedPeriods(months)
	s.ByDay = sortedPeriods(days)

	// Strict > keeps the first-encountered category on ties.
	bestSum, bestCount := 0, 0
	for i, ca := range s.ByCategory {
		if i == 0 || ca.Amount.Cents > s.ByCategory[bestSum].Amount.Cents {
			bestSum = i
		}
		if i == 0 || ca.Count > s.ByCategory[bestCount].Count {
			bestCount = i
		}
	}
	s.TopBySum = s.ByCategory[bestSum].Category
	s.TopByCount = s.ByCategory[bestCount].Category

	return s
}

func sortedPeriods(m map[string]int64) []PeriodAmount {
	out := make([]PeriodAmount, 0, len(m))
	for k, cents := range m {
		out = append(out, PeriodAmount{Period: k, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}
