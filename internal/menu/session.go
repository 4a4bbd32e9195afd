package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Selectors anchors the session to the widget's markup.
type Selectors struct {
	DatePanel        string
	DateOption       string
	DateLabel        string
	PeriodPanel      string
	PeriodOption     string
	PeriodLabel      string
	PayloadHost      string
	PayloadAttribute string
	Unavailable      string
}

// Timing bounds every wait the session performs.
type Timing struct {
	PageTimeout     time.Duration // widget anchors must attach within this
	OpenTimeout     time.Duration // options must attach after a panel click
	SettleTimeout   time.Duration // label and payload must settle after a selection
	PollInterval    time.Duration
	DateSettleDelay time.Duration // pause after a date settles, before checking availability
	StabilityDelay  time.Duration // pause after a period settles, before reading the payload
}

// SessionConfig configures a Session.
type SessionConfig struct {
	URL            string
	Selectors      Selectors
	Timing         Timing
	MaxDates       int
	DateAttempts   int
	PeriodAttempts int
	Periods        []string         // canonical period order
	Now            func() time.Time // defaults to time.Now
}

const (
	reasonDateSelection   = "date selection failed"
	reasonNoMenu          = "no menu available"
	reasonNoPeriods       = "no period options"
	reasonPeriodList      = "period enumeration failed"
	reasonPeriodSelection = "period selection failed"
	reasonEmptyPayload    = "empty payload"
	reasonPayloadParse    = "payload parse failed"
)

// Session drives the widget through every (date, period) state and
// collects the menus. A Session owns the page for the duration of Run and
// must not be shared.
type Session struct {
	cfg     SessionConfig
	driver  Driver
	watcher *Watcher
	dates   *Dropdown
	periods *Dropdown
	logger  *zap.Logger
}

// NewSession wires the watcher and both dropdowns over driver.
func NewSession(driver Driver, cfg SessionConfig, diagnose DiagnosticFunc, logger *zap.Logger) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxDates <= 0 {
		cfg.MaxDates = MaxDates
	}
	if len(cfg.Periods) == 0 {
		cfg.Periods = DefaultPeriods
	}
	sel, tm := cfg.Selectors, cfg.Timing

	watcher := NewWatcher(driver, sel.PayloadHost, sel.PayloadAttribute, tm.PollInterval, logger)
	return &Session{
		cfg:     cfg,
		driver:  driver,
		watcher: watcher,
		dates: NewDropdown(driver, watcher, DropdownConfig{
			Name:                "date",
			PanelSelector:       sel.DatePanel,
			OptionSelector:      sel.DateOption,
			LabelSelector:       sel.DateLabel,
			UnavailableSelector: sel.Unavailable,
			OpenTimeout:         tm.OpenTimeout,
			SettleTimeout:       tm.SettleTimeout,
			PollInterval:        tm.PollInterval,
		}, diagnose, logger),
		periods: NewDropdown(driver, watcher, DropdownConfig{
			Name:           "period",
			PanelSelector:  sel.PeriodPanel,
			OptionSelector: sel.PeriodOption,
			LabelSelector:  sel.PeriodLabel,
			OpenTimeout:    tm.OpenTimeout,
			SettleTimeout:  tm.SettleTimeout,
			PollInterval:   tm.PollInterval,
			RetryNotFound:  true,
		}, diagnose, logger),
		logger: logger.Named("session"),
	}
}

// Run loads the widget and scrapes every upcoming date and its periods.
// Only a failed load, missing anchors or an unreadable date list are
// fatal; everything else is recorded in Result.Skips. On cancellation the
// entries gathered so far are returned with ctx's error.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	s.logger.Info("navigating", zap.String("url", s.cfg.URL))
	if err := s.driver.Navigate(ctx, s.cfg.URL); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := s.awaitAnchors(ctx); err != nil {
		return nil, err
	}

	dates, err := s.enumerateDates(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Dates: dates, Entries: []Entry{}}
	byDate := make([][]Entry, len(dates))
	shown := s.dates.Shown(ctx)
	for _, i := range visitOrder(dates, shown) {
		if ctx.Err() != nil {
			break
		}
		// a lone date the page loaded with has no transition to wait for
		loaded := len(dates) == 1 && dates[i] == shown
		byDate[i] = s.scrapeDate(ctx, dates[i], loaded, result)
	}
	for _, entries := range byDate {
		result.Entries = append(result.Entries, entries...)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	s.logger.Info("session complete",
		zap.Int("entries", len(result.Entries)),
		zap.Int("skipped", len(result.Skips)),
	)
	return result, nil
}

// visitOrder returns the indexes of labels with shown moved to the end. A
// selection only settles on a payload change, so the state the widget
// already shows is reached last, from a different one.
func visitOrder(labels []string, shown string) []int {
	order := make([]int, 0, len(labels))
	last := -1
	for i, l := range labels {
		if l == shown && last < 0 {
			last = i
			continue
		}
		order = append(order, i)
	}
	if last >= 0 {
		order = append(order, last)
	}
	return order
}

func (s *Session) awaitAnchors(ctx context.Context) error {
	sel := s.cfg.Selectors
	anchors := []string{sel.DatePanel, sel.PeriodPanel, sel.PayloadHost}
	missing := ""
	ok := waitUntil(ctx, s.cfg.Timing.PollInterval, s.cfg.Timing.PageTimeout, func() bool {
		for _, a := range anchors {
			els, err := s.driver.Query(ctx, a)
			if err != nil || len(els) == 0 {
				missing = a
				return false
			}
		}
		return true
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrPreconditionTimeout, missing)
	}
	return nil
}

func (s *Session) enumerateDates(ctx context.Context) ([]string, error) {
	labels, err := s.dates.Options(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect date options: %w", err)
	}
	dates := FilterUpcoming(labels, s.cfg.Now(), s.cfg.MaxDates)
	s.logger.Info("collected dates",
		zap.Strings("raw", labels),
		zap.Strings("upcoming", dates),
	)
	return dates, nil
}

// scrapeDate processes one date and returns its entries in period order.
// loaded means the widget already shows date and no selection is made.
func (s *Session) scrapeDate(ctx context.Context, date string, loaded bool, result *Result) []Entry {
	log := s.logger.With(zap.String("date", date))
	log.Info("processing date", zap.Bool("loaded", loaded))

	if !loaded {
		if err := s.dates.Select(ctx, date, s.cfg.DateAttempts); err != nil {
			s.skip(result, date, "", reasonDateSelection, err)
			return nil
		}
	}
	sleep(ctx, s.cfg.Timing.DateSettleDelay)

	if s.unavailable(ctx) {
		s.skip(result, date, "", reasonNoMenu, ErrNoMenu)
		return nil
	}
	if n, err := s.periods.Attached(ctx); err == nil && n == 0 {
		s.skip(result, date, "", reasonNoPeriods, ErrNoMenu)
		return nil
	}

	labels, err := s.periods.Options(ctx)
	if err != nil {
		s.skip(result, date, "", reasonPeriodList, err)
		return nil
	}
	periods := OrderPeriods(labels, s.cfg.Periods)
	if len(periods) == 0 {
		s.skip(result, date, "", reasonNoPeriods, ErrNoMenu)
		return nil
	}
	shown := s.periods.Shown(ctx)
	log.Debug("periods", zap.Strings("periods", periods), zap.String("shown", shown))

	captured := make([]*Entry, len(periods))
	for _, i := range visitOrder(periods, shown) {
		if ctx.Err() != nil {
			break
		}
		period := periods[i]
		// the only period of a freshly settled date is already on screen
		current := len(periods) == 1 && period == shown
		entry, reason, err := s.scrapePeriod(ctx, date, period, current)
		if err != nil {
			s.skip(result, date, period, reason, err)
			continue
		}
		captured[i] = &entry
		log.Info("captured period",
			zap.String("period", period),
			zap.Int("sections", len(entry.Sections)),
		)
	}

	var entries []Entry
	for _, e := range captured {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries
}

func (s *Session) scrapePeriod(ctx context.Context, date, period string, current bool) (Entry, string, error) {
	if !current {
		if err := s.periods.Select(ctx, period, s.cfg.PeriodAttempts); err != nil {
			return Entry{}, reasonPeriodSelection, err
		}
	}
	sleep(ctx, s.cfg.Timing.StabilityDelay)

	raw := s.watcher.CurrentPayload(ctx)
	if raw == "" {
		return Entry{}, reasonEmptyPayload, ErrEmptyPayload
	}
	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Entry{}, reasonPayloadParse, fmt.Errorf("%w (%d bytes): %v", ErrPayloadParse, len(raw), err)
	}
	return Entry{
		Date:     date,
		Period:   period,
		Sections: BuildSections(payload.Items),
	}, "", nil
}

// unavailable reports whether any "no menu" sentinel is visible.
func (s *Session) unavailable(ctx context.Context) bool {
	if s.cfg.Selectors.Unavailable == "" {
		return false
	}
	return s.watcher.anyVisible(ctx, s.cfg.Selectors.Unavailable)
}

func (s *Session) skip(result *Result, date, period, reason string, err error) {
	result.Skips = append(result.Skips, Skip{Date: date, Period: period, Reason: reason, Err: err})
	fields := []zap.Field{
		zap.String("date", date),
		zap.String("reason", reason),
		zap.Error(err),
	}
	if period != "" {
		fields = append(fields, zap.String("period", period))
	}
	if errors.Is(err, ErrNoMenu) {
		s.logger.Info("skipping", fields...)
		return
	}
	s.logger.Warn("skipping", fields...)
}
