package tenkites

import (
	"context"
	"errors"
	"fmt"

	"dinemenu/internal/browser"
	"dinemenu/internal/config"
	"dinemenu/internal/menu"
	"dinemenu/internal/scraper"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ErrFallbackExhausted means neither the browser nor the static snapshot
// produced a result.
var ErrFallbackExhausted = errors.New("all scrape strategies failed")

func init() {
	scraper.Register(&MenuScraper{})
}

type runFunc func(ctx context.Context, target string, cfg config.Config, logger *zap.Logger) (*menu.Result, error)

// MenuScraper walks a Ten Kites menu widget in a real browser, and falls
// back to the served markup when no browser runtime is available.
type MenuScraper struct {
	interactive runFunc
	static      runFunc
}

func (s *MenuScraper) Name() string { return "tenkites" }

// Scrape returns a *MenuContent. target defaults to the configured URL.
// When ctx ends mid-session the entries gathered so far are returned
// together with ctx's error.
func (s *MenuScraper) Scrape(ctx context.Context, target string, opts scraper.Options) (scraper.Content, error) {
	cfg := opts.Config
	logger := opts.Log().Named("tenkites")
	if target == "" {
		target = cfg.URL
	}
	if target == "" {
		return nil, fmt.Errorf("url is required for --site tenkites")
	}

	result, err := s.run(ctx, target, cfg, logger)
	if err != nil {
		if result != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			logger.Warn("scrape interrupted", zap.Int("entries", len(result.Entries)), zap.Error(err))
			return NewMenuContent(target, result, cfg.Periods), err
		}
		return nil, err
	}
	return NewMenuContent(target, result, cfg.Periods), nil
}

func (s *MenuScraper) run(ctx context.Context, target string, cfg config.Config, logger *zap.Logger) (*menu.Result, error) {
	interactive, static := s.interactive, s.static
	if interactive == nil {
		interactive = runInteractive
	}
	if static == nil {
		static = runStatic
	}

	if cfg.Fallback.Static {
		logger.Info("static mode, skipping browser")
		return static(ctx, target, cfg, logger)
	}

	result, err := interactive(ctx, target, cfg, logger)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, browser.ErrRuntimeUnavailable) || cfg.Fallback.Disabled {
		return result, err
	}

	logger.Warn("browser unavailable, falling back to served markup", zap.Error(err))
	result, serr := static(ctx, target, cfg, logger)
	if serr != nil {
		return nil, fmt.Errorf("%w: browser: %v; static: %w", ErrFallbackExhausted, err, serr)
	}
	return result, nil
}

func runInteractive(ctx context.Context, target string, cfg config.Config, logger *zap.Logger) (*menu.Result, error) {
	bin, err := browser.EnsureRuntime(ctx, cfg.Browser.BinPath, logger)
	if err != nil {
		return nil, err
	}

	b, err := browser.New(browser.Config{
		Headless:  !cfg.Browser.ShowUI,
		ProxyURL:  cfg.Browser.ProxyURL,
		NoSandbox: cfg.Browser.NoSandbox,
		BinPath:   bin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}
	defer b.Close()

	page, err := b.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	setUserAgent(page, logger)

	driver := NewPageDriver(page, cfg.Timing.Page.Duration, cfg.Timing.Open.Duration)
	diagnostics := NewDiagnostics(page, cfg.Output.DebugDir, logger)

	session := menu.NewSession(driver, SessionConfig(cfg, target), diagnostics.Func(), logger)
	return session.Run(ctx)
}

type userAgentSetter interface {
	SetUserAgent(req *proto.NetworkSetUserAgentOverride) error
}

// setUserAgent is best effort.
func setUserAgent(page userAgentSetter, logger *zap.Logger) {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		logger.Debug("failed to set user agent", zap.Error(err))
	}
}

func runStatic(ctx context.Context, target string, cfg config.Config, logger *zap.Logger) (*menu.Result, error) {
	f, err := NewStaticFetcher(Selectors(cfg.Selectors), cfg.Browser.ProxyURL, cfg.Timing.Page.Duration, logger)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, target)
}

// SessionConfig maps the runtime configuration onto the menu session.
func SessionConfig(cfg config.Config, target string) menu.SessionConfig {
	return menu.SessionConfig{
		URL:       target,
		Selectors: Selectors(cfg.Selectors),
		Timing: menu.Timing{
			PageTimeout:     cfg.Timing.Page.Duration,
			OpenTimeout:     cfg.Timing.Open.Duration,
			SettleTimeout:   cfg.Timing.Settle.Duration,
			PollInterval:    cfg.Timing.Poll.Duration,
			DateSettleDelay: cfg.Timing.DateSettle.Duration,
			StabilityDelay:  cfg.Timing.Stability.Duration,
		},
		MaxDates:       cfg.MaxDates,
		DateAttempts:   cfg.Attempts.Date,
		PeriodAttempts: cfg.Attempts.Period,
		Periods:        cfg.Periods,
	}
}

func Selectors(s config.SelectorsConfig) menu.Selectors {
	return menu.Selectors{
		DatePanel:        s.DatePanel,
		DateOption:       s.DateOption,
		DateLabel:        s.DateLabel,
		PeriodPanel:      s.PeriodPanel,
		PeriodOption:     s.PeriodOption,
		PeriodLabel:      s.PeriodLabel,
		PayloadHost:      s.PayloadHost,
		PayloadAttribute: s.PayloadAttribute,
		Unavailable:      s.Unavailable,
	}
}
