package tenkites

import (
	"strings"

	"dinemenu/internal/menu"
)

// Meal is one period of a day in the report.
type Meal struct {
	Label    string         `json:"label"`
	Sections []menu.Section `json:"sections"`
}

// Day groups the meals served on one date.
type Day struct {
	Label string `json:"label"`
	Meals []Meal `json:"meals"`
}

// GroupByDay turns the flat entry list into days. Days follow dates first,
// then any entry date missing from dates in first-seen order; a date with
// no entries becomes a day without meals. Meals are sorted by vocabulary
// with unknown periods last, and a repeated (date, period) keeps the later
// entry.
func GroupByDay(dates []string, entries []menu.Entry, vocabulary []string) []Day {
	var order []string
	seen := make(map[string]bool)
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			order = append(order, d)
		}
	}
	for _, d := range dates {
		add(strings.TrimSpace(d))
	}

	meals := make(map[string]map[string][]menu.Section)
	labels := make(map[string][]string)
	for _, e := range entries {
		d, p := strings.TrimSpace(e.Date), strings.TrimSpace(e.Period)
		add(d)
		if meals[d] == nil {
			meals[d] = make(map[string][]menu.Section)
		}
		meals[d][p] = e.Sections
		labels[d] = append(labels[d], p)
	}

	days := make([]Day, 0, len(order))
	for _, d := range order {
		day := Day{Label: d, Meals: []Meal{}}
		for _, p := range menu.OrderPeriods(labels[d], vocabulary) {
			sections := meals[d][p]
			if sections == nil {
				sections = []menu.Section{}
			}
			day.Meals = append(day.Meals, Meal{Label: p, Sections: sections})
		}
		days = append(days, day)
	}
	return days
}
