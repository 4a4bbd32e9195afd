package menu

import (
	"strconv"
	"strings"
	"time"
)

// MaxDates caps how many upcoming dates a session visits.
const MaxDates = 10

const monthDayYear = "January 2 2006"

// ParseDateLabel parses a label such as "Monday, December 8" relative to
// today. The year is today's, moved forward across a December to January
// wrap and back across a January to December one.
func ParseDateLabel(label string, today time.Time) (DateOption, bool) {
	parts := strings.Split(label, ",")
	if len(parts) < 2 {
		return DateOption{}, false
	}
	monthDay := strings.TrimSpace(parts[1])
	if monthDay == "" {
		return DateOption{}, false
	}

	t, err := time.Parse(monthDayYear, monthDay+" "+strconv.Itoa(today.Year()))
	if err != nil {
		return DateOption{}, false
	}

	year := t.Year()
	switch {
	case today.Month() == time.December && t.Month() == time.January:
		year++
	case today.Month() == time.January && t.Month() == time.December:
		year--
	}

	return DateOption{
		Label: label,
		Date:  time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, today.Location()),
	}, true
}

// FilterUpcoming keeps the labels dated today or later, in input order, up
// to max of them. Unparseable labels are dropped.
func FilterUpcoming(labels []string, today time.Time, max int) []string {
	day := truncateDay(today)
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if len(out) >= max {
			break
		}
		opt, ok := ParseDateLabel(label, today)
		if !ok || opt.Date.Before(day) {
			continue
		}
		out = append(out, label)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
