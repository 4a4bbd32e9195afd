package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DropdownConfig describes one custom dropdown on the widget.
type DropdownConfig struct {
	Name           string // used in logs and diagnostics, e.g. "date"
	PanelSelector  string // element that toggles the dropdown open and closed
	OptionSelector string // one element per selectable option
	LabelSelector  string // element showing the current selection
	// UnavailableSelector is the "no data" sentinel accepted as settlement,
	// see Expectation.Unavailable. Empty disables it.
	UnavailableSelector string
	// Match reports whether an option's trimmed text selects target.
	// Nil means exact equality.
	Match         func(optionText, target string) bool
	OpenTimeout   time.Duration
	SettleTimeout time.Duration
	PollInterval  time.Duration
	// RetryNotFound makes a missing option consume an attempt instead of
	// failing the selection at once.
	RetryNotFound bool
}

// Dropdown drives one dropdown: open, find an option by label, click it and
// wait for the payload to follow.
type Dropdown struct {
	cfg      DropdownConfig
	driver   Driver
	watcher  *Watcher
	diagnose DiagnosticFunc
	logger   *zap.Logger
}

// NewDropdown creates a Dropdown. diagnose may be nil.
func NewDropdown(driver Driver, watcher *Watcher, cfg DropdownConfig, diagnose DiagnosticFunc, logger *zap.Logger) *Dropdown {
	if cfg.Match == nil {
		cfg.Match = func(optionText, target string) bool { return optionText == target }
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	return &Dropdown{
		cfg:      cfg,
		driver:   driver,
		watcher:  watcher,
		diagnose: diagnose,
		logger:   logger.Named("dropdown").With(zap.String("dropdown", cfg.Name)),
	}
}

// Select picks the option labelled target and waits until the label shows
// target and the payload differs from the one on screen just before the
// click. The panel is re-opened unconditionally on every attempt. A target
// the widget already shows never settles. It returns an error wrapping
// ErrOptionNotFound, ErrOptionsNotOpened or ErrSettleTimeout.
func (d *Dropdown) Select(ctx context.Context, target string, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		log := d.logger.With(zap.String("target", target), zap.Int("attempt", attempt))
		log.Debug("opening panel")

		if err := d.toggle(ctx); err != nil {
			lastErr = fmt.Errorf("failed to open %s panel: %w", d.cfg.Name, err)
			log.Debug("panel click failed", zap.Error(err))
			continue
		}

		options, ok := d.awaitOptions(ctx)
		if !ok {
			lastErr = ErrOptionsNotOpened
			log.Debug("options did not attach, retrying")
			d.capture(ctx, fmt.Sprintf("%s_open_%d", d.cfg.Name, attempt))
			continue
		}

		option, texts := d.find(ctx, options, target)
		if option == nil {
			lastErr = fmt.Errorf("%w: %q", ErrOptionNotFound, target)
			log.Info("option not found", zap.Strings("available", texts))
			d.close(ctx)
			if d.cfg.RetryNotFound {
				continue
			}
			return lastErr
		}

		baseline := d.watcher.CurrentPayload(ctx)
		if err := option.DispatchClick(ctx); err != nil {
			lastErr = fmt.Errorf("failed to click %s option: %w", d.cfg.Name, err)
			d.close(ctx)
			continue
		}

		err := d.watcher.AwaitUpdate(ctx, baseline, Expectation{
			LabelSelector: d.cfg.LabelSelector,
			Label:         target,
			Unavailable:   d.cfg.UnavailableSelector,
		}, d.cfg.SettleTimeout)
		if err == nil {
			log.Debug("selection settled")
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err
		log.Info("selection did not settle", zap.Error(err))
		if attempt < maxAttempts {
			d.close(ctx)
		}
	}

	d.capture(ctx, d.cfg.Name+"_exhausted")
	return fmt.Errorf("failed to select %s %q after %d attempts: %w", d.cfg.Name, target, maxAttempts, lastErr)
}

// Options opens the dropdown, reads every option's trimmed text in DOM
// order and closes it again.
func (d *Dropdown) Options(ctx context.Context) ([]string, error) {
	var options []Element
	for attempt := 1; attempt <= 2 && options == nil; attempt++ {
		if err := d.toggle(ctx); err != nil {
			return nil, fmt.Errorf("failed to open %s panel: %w", d.cfg.Name, err)
		}
		if els, ok := d.awaitOptions(ctx); ok {
			options = els
			break
		}
		d.capture(ctx, fmt.Sprintf("%s_list_%d", d.cfg.Name, attempt))
	}
	if options == nil {
		return nil, fmt.Errorf("failed to list %s options: %w", d.cfg.Name, ErrOptionsNotOpened)
	}

	texts := make([]string, 0, len(options))
	for _, el := range options {
		text, err := el.Text(ctx)
		if err != nil {
			d.logger.Debug("failed to read option text", zap.Error(err))
			continue
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	d.close(ctx)
	return texts, nil
}

// Shown returns the trimmed text of the current selection label.
func (d *Dropdown) Shown(ctx context.Context) string {
	return d.watcher.currentLabel(ctx, d.cfg.LabelSelector)
}

// Attached returns how many options are in the DOM without opening the panel.
func (d *Dropdown) Attached(ctx context.Context) (int, error) {
	els, err := d.driver.Query(ctx, d.cfg.OptionSelector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// toggle clicks the panel. When several panels match, the first visible
// one wins.
func (d *Dropdown) toggle(ctx context.Context) error {
	panels, err := d.driver.Query(ctx, d.cfg.PanelSelector)
	if err != nil {
		return err
	}
	if len(panels) == 0 {
		return fmt.Errorf("no element matches %q", d.cfg.PanelSelector)
	}
	target := panels[0]
	for _, p := range panels {
		if visible, err := p.Visible(ctx); err == nil && visible {
			target = p
			break
		}
	}
	return target.Click(ctx)
}

func (d *Dropdown) close(ctx context.Context) {
	if err := d.toggle(ctx); err != nil {
		d.logger.Debug("failed to close panel", zap.Error(err))
	}
}

func (d *Dropdown) awaitOptions(ctx context.Context) ([]Element, bool) {
	var options []Element
	ok := waitUntil(ctx, d.cfg.PollInterval, d.cfg.OpenTimeout, func() bool {
		els, err := d.driver.Query(ctx, d.cfg.OptionSelector)
		if err != nil {
			return false
		}
		options = els
		return len(els) > 0
	})
	return options, ok
}

// find returns the first option matching target, plus every text it read.
func (d *Dropdown) find(ctx context.Context, options []Element, target string) (Element, []string) {
	texts := make([]string, 0, len(options))
	for _, el := range options {
		text, err := el.Text(ctx)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		texts = append(texts, text)
		if d.cfg.Match(text, target) {
			return el, texts
		}
	}
	return nil, texts
}

func (d *Dropdown) capture(ctx context.Context, stage string) {
	if d.diagnose != nil {
		d.diagnose(ctx, stage)
	}
}
