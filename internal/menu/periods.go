package menu

import (
	"sort"
	"strings"
)

// DefaultPeriods is the canonical meal period order.
var DefaultPeriods = []string{"Breakfast", "Lunch", "Dinner"}

// OrderPeriods trims and de-duplicates labels and sorts them by their
// position in vocabulary. Labels outside the vocabulary follow all known
// ones in their original relative order.
func OrderPeriods(labels, vocabulary []string) []string {
	rank := make(map[string]int, len(vocabulary))
	for i, p := range vocabulary {
		rank[p] = i
	}

	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}

	position := func(label string) int {
		if r, ok := rank[label]; ok {
			return r
		}
		return len(vocabulary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return position(out[i]) < position(out[j])
	})
	return out
}
