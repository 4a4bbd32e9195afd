package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 45*time.Second, cfg.Timing.Page.Duration)
	assert.Equal(t, 4*time.Second, cfg.Timing.Open.Duration)
	assert.Equal(t, 8*time.Second, cfg.Timing.Settle.Duration)
	assert.Equal(t, 10, cfg.MaxDates)
	assert.Equal(t, []string{"Breakfast", "Lunch", "Dinner"}, cfg.Periods)
}

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
url: "https://menus.example.test/widget"
max_dates: 3
periods: [" Brunch ", "Dinner", ""]
attempts:
  period: 2
timing:
  open: 2s
  settle: 5
  poll: 0.1
logging:
  level: DEBUG
  format: JSON
`))
	require.NoError(t, err)

	assert.Equal(t, "https://menus.example.test/widget", cfg.URL)
	assert.Equal(t, 3, cfg.MaxDates)
	assert.Equal(t, []string{"Brunch", "Dinner"}, cfg.Periods)
	assert.Equal(t, 2, cfg.Attempts.Date, "unset fields keep defaults")
	assert.Equal(t, 2, cfg.Attempts.Period)
	assert.Equal(t, 2*time.Second, cfg.Timing.Open.Duration)
	assert.Equal(t, 5*time.Second, cfg.Timing.Settle.Duration)
	assert.Equal(t, 100*time.Millisecond, cfg.Timing.Poll.Duration)
	assert.Equal(t, 45*time.Second, cfg.Timing.Page.Duration)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromReaderEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("max_datez: 3\n"))
	assert.ErrorContains(t, err, "decode config")
}

func TestLoadFromReaderRejectsBadDuration(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("timing:\n  open: soon\n"))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dinemenu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_dates: 4\n"), 0o644))
	t.Setenv(EnvURL, "https://env.example.test/menu")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxDates)
	assert.Equal(t, "https://env.example.test/menu", cfg.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "open config")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvProxy:     "http://127.0.0.1:7890",
		EnvRedisAddr: "localhost:6379",
		EnvURL:       "",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "http://127.0.0.1:7890", cfg.Browser.ProxyURL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, DefaultURL, cfg.URL, "empty values are ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty url", func(c *Config) { c.URL = "" }, "url must be set"},
		{"zero max dates", func(c *Config) { c.MaxDates = 0 }, "max_dates"},
		{"zero date attempts", func(c *Config) { c.Attempts.Date = 0 }, "attempts.date"},
		{"negative period attempts", func(c *Config) { c.Attempts.Period = -1 }, "attempts.period"},
		{"zero settle", func(c *Config) { c.Timing.Settle = Duration{} }, "timing.settle"},
		{"negative stability", func(c *Config) { c.Timing.Stability = DurationFrom(-time.Second) }, "timing.stability"},
		{"missing selector", func(c *Config) { c.Selectors.PayloadHost = "" }, "selectors.payload_host"},
		{"static and disabled", func(c *Config) { c.Fallback.Static, c.Fallback.Disabled = true, true }, "mutually exclusive"},
		{"redis without key", func(c *Config) { c.Redis.Addr, c.Redis.Key = "localhost:6379", "" }, "redis.key"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestDurationJSON(t *testing.T) {
	d := DurationFrom(1500 * time.Millisecond)
	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(b))

	var back Duration
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, d, back)

	assert.Error(t, back.UnmarshalJSON([]byte("15")))
}
