package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the config file.
const (
	EnvURL       = "DINEMENU_URL"
	EnvProxy     = "DINEMENU_PROXY"
	EnvRedisAddr = "DINEMENU_REDIS_ADDR"
	EnvLogLevel  = "DINEMENU_LOG_LEVEL"
)

// DefaultURL is the Ten Kites widget for the NCSSM Morganton dining hall.
const DefaultURL = "https://menus.campus-dining.com/eliorna/d1031"

// Config is the full runtime configuration.
type Config struct {
	URL       string          `yaml:"url"`
	Site      string          `yaml:"site"`
	MaxDates  int             `yaml:"max_dates"`
	Periods   []string        `yaml:"periods"`
	Attempts  AttemptsConfig  `yaml:"attempts"`
	Timing    TimingConfig    `yaml:"timing"`
	Selectors SelectorsConfig `yaml:"selectors"`
	Browser   BrowserConfig   `yaml:"browser"`
	Fallback  FallbackConfig  `yaml:"fallback"`
	Output    OutputConfig    `yaml:"output"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type AttemptsConfig struct {
	Date   int `yaml:"date"`
	Period int `yaml:"period"`
}

// TimingConfig bounds every wait against the widget.
type TimingConfig struct {
	Page       Duration `yaml:"page"`
	Open       Duration `yaml:"open"`
	Settle     Duration `yaml:"settle"`
	Poll       Duration `yaml:"poll"`
	DateSettle Duration `yaml:"date_settle"`
	Stability  Duration `yaml:"stability"`
}

// SelectorsConfig anchors the scraper to the widget markup.
type SelectorsConfig struct {
	DatePanel        string `yaml:"date_panel"`
	DateOption       string `yaml:"date_option"`
	DateLabel        string `yaml:"date_label"`
	PeriodPanel      string `yaml:"period_panel"`
	PeriodOption     string `yaml:"period_option"`
	PeriodLabel      string `yaml:"period_label"`
	PayloadHost      string `yaml:"payload_host"`
	PayloadAttribute string `yaml:"payload_attribute"`
	Unavailable      string `yaml:"unavailable"`
}

type BrowserConfig struct {
	ShowUI    bool   `yaml:"show_ui"`
	ProxyURL  string `yaml:"proxy_url"`
	NoSandbox bool   `yaml:"no_sandbox"`
	BinPath   string `yaml:"bin_path"`
}

type FallbackConfig struct {
	Static         bool `yaml:"static"`   // skip the browser entirely
	Disabled       bool `yaml:"disabled"` // never fall back to the static snapshot
	ReuseOnFailure bool `yaml:"reuse_on_failure"`
}

type OutputConfig struct {
	Format    string `yaml:"format"`
	File      string `yaml:"file"`
	StateFile string `yaml:"state_file"`
	DebugDir  string `yaml:"debug_dir"`
}

// RedisConfig enables the Redis result store when Addr is set.
type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	Key      string   `yaml:"key"`
	TTL      Duration `yaml:"ttl"`
	History  int      `yaml:"history"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		URL:      DefaultURL,
		Site:     "tenkites",
		MaxDates: 10,
		Periods:  []string{"Breakfast", "Lunch", "Dinner"},
		Attempts: AttemptsConfig{Date: 2, Period: 3},
		Timing: TimingConfig{
			Page:       DurationFrom(45 * time.Second),
			Open:       DurationFrom(4 * time.Second),
			Settle:     DurationFrom(8 * time.Second),
			Poll:       DurationFrom(200 * time.Millisecond),
			DateSettle: DurationFrom(time.Second),
			Stability:  DurationFrom(500 * time.Millisecond),
		},
		Selectors: SelectorsConfig{
			DatePanel:        ".k10-menu-date-selector__panel",
			DateOption:       ".k10-menu-date-selector__week-day",
			DateLabel:        ".k10-menu-date-selector__name",
			PeriodPanel:      ".k10-menu-selector__panel",
			PeriodOption:     ".k10-menu-selector__option",
			PeriodLabel:      ".k10-menu-selector__name",
			PayloadHost:      "[data-menu-json]",
			PayloadAttribute: "data-menu-json",
			Unavailable:      ".k10-course_not_available",
		},
		Output: OutputConfig{
			Format:    "json",
			StateFile: "menus_dropdown.json",
		},
		Redis: RedisConfig{
			Key:     "dinemenu:menus",
			TTL:     DurationFrom(24 * time.Hour),
			History: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fh, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer fh.Close()
		if err := decodeYAML(fh, &cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromReader decodes configuration from an arbitrary reader without
// environment overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return nil, err
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the DINEMENU_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvURL); ok && v != "" {
		c.URL = v
	}
	if v, ok := lookup(EnvProxy); ok && v != "" {
		c.Browser.ProxyURL = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations the scraper cannot run with.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("url must be set")
	}
	if c.MaxDates <= 0 {
		return fmt.Errorf("max_dates must be > 0 (got %d)", c.MaxDates)
	}
	if c.Attempts.Date <= 0 {
		return fmt.Errorf("attempts.date must be > 0 (got %d)", c.Attempts.Date)
	}
	if c.Attempts.Period <= 0 {
		return fmt.Errorf("attempts.period must be > 0 (got %d)", c.Attempts.Period)
	}

	timings := []struct {
		name  string
		value Duration
	}{
		{"timing.page", c.Timing.Page},
		{"timing.open", c.Timing.Open},
		{"timing.settle", c.Timing.Settle},
		{"timing.poll", c.Timing.Poll},
	}
	for _, tm := range timings {
		if tm.value.Duration <= 0 {
			return fmt.Errorf("%s must be > 0 (got %s)", tm.name, tm.value)
		}
	}
	if c.Timing.DateSettle.Duration < 0 || c.Timing.Stability.Duration < 0 {
		return errors.New("timing.date_settle and timing.stability must be >= 0")
	}

	s := c.Selectors
	required := map[string]string{
		"selectors.date_panel":        s.DatePanel,
		"selectors.date_option":       s.DateOption,
		"selectors.date_label":        s.DateLabel,
		"selectors.period_panel":      s.PeriodPanel,
		"selectors.period_option":     s.PeriodOption,
		"selectors.period_label":      s.PeriodLabel,
		"selectors.payload_host":      s.PayloadHost,
		"selectors.payload_attribute": s.PayloadAttribute,
	}
	for name, v := range required {
		if v == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}

	if c.Fallback.Static && c.Fallback.Disabled {
		return errors.New("fallback.static and fallback.disabled are mutually exclusive")
	}
	if c.Redis.Addr != "" && c.Redis.Key == "" {
		return errors.New("redis.key must be set when redis.addr is set")
	}
	if c.Redis.History < 0 {
		return fmt.Errorf("redis.history must be >= 0 (got %d)", c.Redis.History)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}

func (c *Config) normalise() {
	c.URL = strings.TrimSpace(c.URL)
	c.Site = strings.ToLower(strings.TrimSpace(c.Site))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	periods := make([]string, 0, len(c.Periods))
	for _, p := range c.Periods {
		if p = strings.TrimSpace(p); p != "" {
			periods = append(periods, p)
		}
	}
	c.Periods = periods
}
