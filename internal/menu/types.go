package menu

import "time"

// DateOption is a date dropdown label with its inferred calendar date.
type DateOption struct {
	Label string
	Date  time.Time
}

// RawMenuItem is one element of the widget's flat item list.
type RawMenuItem struct {
	ItemType    string  `json:"itemType"`
	SectionGUID string  `json:"sectionGuid"`
	SectionName *string `json:"sectionName,omitempty"`
	RecipeName  *string `json:"recipeName,omitempty"`
}

// Payload is the document carried by the widget's payload attribute.
type Payload struct {
	Items []RawMenuItem `json:"items"`
}

// Section is a titled group of item names in widget order.
type Section struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Entry is the menu for one (date, period) pair.
type Entry struct {
	Date     string    `json:"date"`
	Period   string    `json:"period"`
	Sections []Section `json:"sections"`
}

// Skip records a date or period the session gave up on. Period is empty
// when the whole date was skipped.
type Skip struct {
	Date   string `json:"date"`
	Period string `json:"period,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Result is the output of one session run: entries in date order, then
// canonical period order, and the skip trail in visiting order. Dates lists
// the upcoming dates the session visited.
type Result struct {
	Dates   []string
	Entries []Entry
	Skips   []Skip
}
