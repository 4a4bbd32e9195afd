package menu

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	selDatePanel    = "#date-panel"
	selDateOption   = ".date-option"
	selDateLabel    = "#date-name"
	selPeriodPanel  = "#period-panel"
	selPeriodOption = ".period-option"
	selPeriodLabel  = "#period-name"
	selPayload      = "[data-menu-json]"
	selUnavailable  = ".not-available"
	attrPayload     = "data-menu-json"
)

func testSelectors() Selectors {
	return Selectors{
		DatePanel:        selDatePanel,
		DateOption:       selDateOption,
		DateLabel:        selDateLabel,
		PeriodPanel:      selPeriodPanel,
		PeriodOption:     selPeriodOption,
		PeriodLabel:      selPeriodLabel,
		PayloadHost:      selPayload,
		PayloadAttribute: attrPayload,
		Unavailable:      selUnavailable,
	}
}

func testTiming() Timing {
	return Timing{
		PageTimeout:   50 * time.Millisecond,
		OpenTimeout:   20 * time.Millisecond,
		SettleTimeout: 30 * time.Millisecond,
		PollInterval:  time.Millisecond,
	}
}

// fakeWidget is an in-memory stand-in for the dropdown widget. Date options
// are attached only while the date panel is open; period options are
// attached whenever the selected date has any.
type fakeWidget struct {
	dates    []string
	periods  map[string][]string // date -> periods in DOM order
	payloads map[string]string   // "date|period" -> payload override
	noMenu   map[string]bool     // dates showing the unavailable sentinel
	ignore   map[string]bool     // option labels whose clicks do nothing
	// staleLabel lists option labels whose click swaps the payload but
	// leaves the visible label unchanged.
	staleLabel map[string]bool

	openFailures  int // panel clicks that are swallowed
	missingAnchor bool
	// lag defers the effect of an option click by this many queries.
	lag int
	// payloadLag makes a period click update the label at once and swap the
	// payload this many queries later.
	payloadLag int
	pending    func()
	pendingIn  int

	date, period string
	payload      string
	dateOpen     bool
	periodOpen   bool

	navigated  string
	dispatched []string
}

func newFakeWidget(dates []string, periods ...string) *fakeWidget {
	w := &fakeWidget{
		dates:      dates,
		periods:    make(map[string][]string),
		payloads:   make(map[string]string),
		noMenu:     make(map[string]bool),
		ignore:     make(map[string]bool),
		staleLabel: make(map[string]bool),
	}
	for _, d := range dates {
		w.periods[d] = periods
	}
	return w
}

func payloadFor(date, period string) string {
	return fmt.Sprintf(`{"items":[`+
		`{"itemType":"section","sectionGuid":"s1","sectionName":"Grill"},`+
		`{"itemType":"recipe","sectionGuid":"s1","recipeName":"%s %s"}]}`, date, period)
}

func (w *fakeWidget) payloadOf(date, period string) string {
	if v, ok := w.payloads[date+"|"+period]; ok {
		return v
	}
	return payloadFor(date, period)
}

// show puts the widget on date as if the page had loaded with it selected.
func (w *fakeWidget) show(date string) { w.selectDate(date) }

func (w *fakeWidget) selectDate(d string) {
	w.date = d
	if w.noMenu[d] {
		w.period, w.payload = "", ""
		return
	}
	ps := w.periods[d]
	if len(ps) == 0 {
		w.period = ""
		w.payload = w.payloadOf(d, "")
		return
	}
	w.period = ps[0]
	w.payload = w.payloadOf(d, ps[0])
}

func (w *fakeWidget) selectPeriod(p string) {
	if !w.staleLabel[p] {
		w.period = p
	}
	w.payload = w.payloadOf(w.date, p)
}

func (w *fakeWidget) Navigate(_ context.Context, url string) error {
	w.navigated = url
	return nil
}

// apply runs fn now, or after w.lag further queries.
func (w *fakeWidget) apply(fn func()) {
	if w.lag <= 0 {
		fn()
		return
	}
	w.pending, w.pendingIn = fn, w.lag
}

func (w *fakeWidget) Query(_ context.Context, selector string) ([]Element, error) {
	if w.pending != nil {
		w.pendingIn--
		if w.pendingIn <= 0 {
			fn := w.pending
			w.pending = nil
			fn()
		}
	}
	one := func(kind string) []Element { return []Element{&fakeElement{w: w, kind: kind}} }
	switch selector {
	case selDatePanel:
		if w.missingAnchor {
			return nil, nil
		}
		return one("datePanel"), nil
	case selPeriodPanel:
		return one("periodPanel"), nil
	case selPayload:
		return one("payload"), nil
	case selDateLabel:
		return one("dateLabel"), nil
	case selPeriodLabel:
		return one("periodLabel"), nil
	case selUnavailable:
		return one("sentinel"), nil
	case selDateOption:
		if !w.dateOpen {
			return nil, nil
		}
		els := make([]Element, 0, len(w.dates))
		for _, d := range w.dates {
			els = append(els, &fakeElement{w: w, kind: "dateOption", value: d})
		}
		return els, nil
	case selPeriodOption:
		if w.date == "" || w.noMenu[w.date] {
			return nil, nil
		}
		var els []Element
		for _, p := range w.periods[w.date] {
			els = append(els, &fakeElement{w: w, kind: "periodOption", value: p})
		}
		return els, nil
	}
	return nil, fmt.Errorf("unexpected selector %q", selector)
}

type fakeElement struct {
	w     *fakeWidget
	kind  string
	value string
}

func (e *fakeElement) Click(context.Context) error {
	switch e.kind {
	case "datePanel":
		if e.w.openFailures > 0 {
			e.w.openFailures--
			return nil
		}
		e.w.dateOpen = !e.w.dateOpen
	case "periodPanel":
		e.w.periodOpen = !e.w.periodOpen
	default:
		return errors.New("not clickable")
	}
	return nil
}

func (e *fakeElement) DispatchClick(context.Context) error {
	e.w.dispatched = append(e.w.dispatched, e.value)
	if e.w.ignore[e.value] {
		return nil
	}
	switch e.kind {
	case "dateOption":
		e.w.dateOpen = false
		e.w.apply(func() { e.w.selectDate(e.value) })
	case "periodOption":
		e.w.periodOpen = false
		if e.w.payloadLag > 0 {
			if !e.w.staleLabel[e.value] {
				e.w.period = e.value
			}
			date, period := e.w.date, e.value
			e.w.pending, e.w.pendingIn = func() { e.w.payload = e.w.payloadOf(date, period) }, e.w.payloadLag
			return nil
		}
		e.w.apply(func() { e.w.selectPeriod(e.value) })
	default:
		return errors.New("not an option")
	}
	return nil
}

func (e *fakeElement) Text(context.Context) (string, error) {
	switch e.kind {
	case "dateLabel":
		return e.w.date, nil
	case "periodLabel":
		return " " + e.w.period + "\n", nil
	case "dateOption", "periodOption":
		return "  " + e.value + " ", nil
	}
	return "", nil
}

func (e *fakeElement) Attribute(_ context.Context, name string) (string, bool, error) {
	if e.kind != "payload" || name != attrPayload {
		return "", false, nil
	}
	return e.w.payload, e.w.payload != "", nil
}

func (e *fakeElement) Visible(context.Context) (bool, error) {
	if e.kind == "sentinel" {
		return e.w.noMenu[e.w.date], nil
	}
	return true, nil
}
