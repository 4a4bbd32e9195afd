package menu

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Watcher polls the payload attribute to decide when the widget has
// actually switched to a requested state.
type Watcher struct {
	driver    Driver
	host      string
	attribute string
	interval  time.Duration
	logger    *zap.Logger
}

// NewWatcher creates a Watcher reading attribute from the first element
// matching host.
func NewWatcher(driver Driver, host, attribute string, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Watcher{
		driver:    driver,
		host:      host,
		attribute: attribute,
		interval:  interval,
		logger:    logger.Named("watcher"),
	}
}

// CurrentPayload returns the attribute value, or "" when the host or the
// attribute is missing or unreadable.
func (w *Watcher) CurrentPayload(ctx context.Context) string {
	els, err := w.driver.Query(ctx, w.host)
	if err != nil || len(els) == 0 {
		return ""
	}
	v, ok, err := els[0].Attribute(ctx, w.attribute)
	if err != nil || !ok {
		return ""
	}
	return v
}

// currentLabel returns the trimmed text of the first element matching
// selector, or "".
func (w *Watcher) currentLabel(ctx context.Context, selector string) string {
	els, err := w.driver.Query(ctx, selector)
	if err != nil || len(els) == 0 {
		return ""
	}
	text, err := els[0].Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// anyVisible reports whether some element matching selector is visible.
func (w *Watcher) anyVisible(ctx context.Context, selector string) bool {
	els, err := w.driver.Query(ctx, selector)
	if err != nil {
		return false
	}
	for _, el := range els {
		if visible, err := el.Visible(ctx); err == nil && visible {
			return true
		}
	}
	return false
}

// Expectation is the label a selection is trying to reach. A zero
// Expectation only requires a new payload.
type Expectation struct {
	LabelSelector string
	Label         string
	// Unavailable, when set, is a sentinel selector whose visibility
	// together with a matching label counts as settled without a new
	// payload: the widget has nothing to show for that state.
	Unavailable string
}

// AwaitUpdate polls until the payload is non-empty and differs from
// previous and, when want names a label, the visible label equals it in the
// same poll. It returns ErrSettleTimeout if that never happens within
// timeout.
func (w *Watcher) AwaitUpdate(ctx context.Context, previous string, want Expectation, timeout time.Duration) error {
	var payload, label string
	settled := waitUntil(ctx, w.interval, timeout, func() bool {
		payload = w.CurrentPayload(ctx)
		changed := payload != "" && payload != previous
		if want.Label == "" {
			return changed
		}
		label = w.currentLabel(ctx, want.LabelSelector)
		if label != want.Label {
			return false
		}
		if changed {
			return true
		}
		return want.Unavailable != "" && w.anyVisible(ctx, want.Unavailable)
	})
	if settled {
		return nil
	}

	w.logger.Debug("payload did not settle",
		zap.String("want_label", want.Label),
		zap.String("label", label),
		zap.Int("payload_bytes", len(payload)),
		zap.Bool("payload_changed", payload != "" && payload != previous),
		zap.Duration("timeout", timeout),
	)
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrSettleTimeout
}
