package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"dinemenu/internal/config"
	"dinemenu/internal/formatter"
	"dinemenu/internal/logging"
	"dinemenu/internal/menu"
	"dinemenu/internal/scraper"
	"dinemenu/internal/sites/tenkites"
	"dinemenu/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

var (
	configPath     string
	outputFormat   string
	outputFile     string
	site           string
	maxDates       int
	showUI         bool
	proxyURL       string
	noSandbox      bool
	browserBin     string
	debugDir       string
	redisAddr      string
	staticOnly     bool
	noFallback     bool
	reuseOnFailure bool
	logLevel       string
	stateFile      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:     "dinemenu [URL]",
		Short:   "Scrape dining hall menus from a Ten Kites menu widget",
		Version: version,
		Long: `dinemenu drives a Ten Kites dining menu widget in a headless browser,
visits every upcoming date and meal period, and writes the menus as JSON,
HTML, Markdown, text or CSV. The URL defaults to the configured widget.`,
		Example: `  # Scrape the default widget and print JSON
  dinemenu

  # Write an HTML report, keeping the previous result if the scrape fails
  dinemenu -o page.html --reuse-on-failure

  # Only the next three days, with screenshots of failed steps
  dinemenu --max-dates 3 --debug-dir debug -f markdown

  # Read the served markup without a browser
  dinemenu --static https://menus.campus-dining.com/eliorna/d1031`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, html, markdown, text, csv)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	rootCmd.Flags().StringVar(&site, "site", "tenkites", "Site adapter")
	rootCmd.Flags().IntVar(&maxDates, "max-dates", menu.MaxDates, "Maximum number of upcoming dates to visit")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL (e.g. http://127.0.0.1:7890), defaults to "+config.EnvProxy+" env var")
	rootCmd.Flags().BoolVar(&noSandbox, "no-sandbox", false, "Launch Chromium without its sandbox (containers)")
	rootCmd.Flags().StringVar(&browserBin, "browser-bin", "", "Chromium binary to use instead of looking one up")
	rootCmd.Flags().StringVar(&debugDir, "debug-dir", "", "Write screenshots and page HTML of failed steps here")
	rootCmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Also store results in Redis at this address")
	rootCmd.Flags().BoolVar(&staticOnly, "static", false, "Skip the browser and read the served markup once")
	rootCmd.Flags().BoolVar(&noFallback, "no-fallback", false, "Fail instead of reading the served markup when no browser is available")
	rootCmd.Flags().BoolVar(&reuseOnFailure, "reuse-on-failure", false, "Render the previously stored result if scraping fails")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&stateFile, "state-file", "menus_dropdown.json", "JSON file the latest result is stored in (empty to disable)")

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	target := cfg.URL
	if len(args) == 1 {
		target = normalizeURL(args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stores, closeStores := openStores(cfg)
	defer closeStores()

	s, ok := scraper.Get(cfg.Site)
	if !ok {
		return fmt.Errorf("unknown site: %s (available: %s)", cfg.Site, strings.Join(scraper.Names(), ", "))
	}

	content, err := s.Scrape(ctx, target, scraper.Options{Config: cfg, Logger: logger})
	var interrupted error
	if err != nil && content != nil {
		// partial result, written out but never stored over a complete one
		logger.Warn("writing partial result", zap.Error(err))
		interrupted = err
	} else if err != nil {
		if !cfg.Fallback.ReuseOnFailure || len(stores) == 0 {
			return fmt.Errorf("failed to scrape: %w", err)
		}
		logger.Warn("scrape failed, using previously stored result", zap.Error(err))
		entries, lerr := stores.Load(ctx)
		if lerr != nil {
			return fmt.Errorf("failed to scrape: %w", errors.Join(err, lerr))
		}
		content = tenkites.NewMenuContent(target, &menu.Result{Entries: entries}, cfg.Periods)
	} else if withEntries, ok := content.(interface{ Entries() []menu.Entry }); ok && len(stores) > 0 {
		if err := stores.Save(ctx, withEntries.Entries()); err != nil {
			logger.Warn("failed to store result", zap.Error(err))
		}
	}

	// Format output
	outputContent, err := formatter.Format(content, cfg.Output.Format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Output result
	if cfg.Output.File != "" {
		if err := os.WriteFile(cfg.Output.File, []byte(outputContent), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		logger.Info("output written", zap.String("path", cfg.Output.File), zap.String("format", cfg.Output.Format))
	} else {
		fmt.Println(outputContent)
	}

	if interrupted != nil {
		return fmt.Errorf("scrape interrupted: %w", interrupted)
	}
	return nil
}

// loadConfig merges defaults, the config file, DINEMENU_* variables and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	loaded, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg := *loaded
	flags := cmd.Flags()

	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(outputFormat)
	}
	if flags.Changed("output") {
		cfg.Output.File = outputFile
	}
	// If output file is specified but format is not, infer format from file extension
	if cfg.Output.File != "" && !flags.Changed("format") {
		if inferred := formatter.InferFromExtension(cfg.Output.File); inferred != "" {
			cfg.Output.Format = inferred
		}
	}
	if flags.Changed("site") {
		cfg.Site = site
	}
	if flags.Changed("max-dates") {
		cfg.MaxDates = maxDates
	}
	if flags.Changed("showui") {
		cfg.Browser.ShowUI = showUI
	}
	if flags.Changed("proxy") {
		cfg.Browser.ProxyURL = proxyURL
	}
	if flags.Changed("no-sandbox") {
		cfg.Browser.NoSandbox = noSandbox
	}
	if flags.Changed("browser-bin") {
		cfg.Browser.BinPath = browserBin
	}
	if flags.Changed("debug-dir") {
		cfg.Output.DebugDir = debugDir
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr = redisAddr
	}
	if flags.Changed("static") {
		cfg.Fallback.Static = staticOnly
	}
	if flags.Changed("no-fallback") {
		cfg.Fallback.Disabled = noFallback
	}
	if flags.Changed("reuse-on-failure") {
		cfg.Fallback.ReuseOnFailure = reuseOnFailure
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("state-file") {
		cfg.Output.StateFile = stateFile
	}

	if !formatter.Valid(cfg.Output.Format) {
		return config.Config{}, fmt.Errorf("invalid output format: %s", cfg.Output.Format)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openStores(cfg config.Config) (store.Multi, func()) {
	var stores store.Multi
	closers := []func(){}
	if cfg.Output.StateFile != "" {
		stores = append(stores, store.NewFileStore(cfg.Output.StateFile))
	}
	if cfg.Redis.Addr != "" {
		rs := store.NewRedisStore(store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			TTL:      cfg.Redis.TTL.Duration,
			History:  cfg.Redis.History,
		})
		stores = append(stores, rs)
		closers = append(closers, func() { _ = rs.Close() })
	}
	return stores, func() {
		for _, c := range closers {
			c()
		}
	}
}

// normalizeURL normalizes URL, adds https:// if no protocol prefix
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	if !strings.HasPrefix(strings.ToLower(rawURL), "http://") && !strings.HasPrefix(strings.ToLower(rawURL), "https://") {
		return "https://" + rawURL
	}
	return rawURL
}
