package tenkites

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dinemenu/internal/menu"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxStaticBody caps how much of the served page is read.
const maxStaticBody = 10 << 20

// StaticFetcher reads the widget's served markup once, without a browser.
// It only ever sees the state the server rendered, so it yields at most one
// entry.
type StaticFetcher struct {
	client    *http.Client
	selectors menu.Selectors
	logger    *zap.Logger
}

// NewStaticFetcher builds a fetcher with its own client. proxyURL may be
// empty.
func NewStaticFetcher(selectors menu.Selectors, proxyURL string, timeout time.Duration, logger *zap.Logger) (*StaticFetcher, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	client := &http.Client{Transport: transport, Timeout: timeout}
	return newStaticFetcher(client, selectors, logger), nil
}

func newStaticFetcher(client *http.Client, selectors menu.Selectors, logger *zap.Logger) *StaticFetcher {
	return &StaticFetcher{client: client, selectors: selectors, logger: logger.Named("static")}
}

// Fetch returns the single (date, period) the page was served with. The
// error wraps menu.ErrEmptyPayload when the markup carries no payload and
// menu.ErrPayloadParse when it is not valid JSON.
func (f *StaticFetcher) Fetch(ctx context.Context, target string) (*menu.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %s", target, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxStaticBody))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return f.extract(doc)
}

func (f *StaticFetcher) extract(doc *goquery.Document) (*menu.Result, error) {
	sel := f.selectors
	raw, _ := doc.Find(sel.PayloadHost).First().Attr(sel.PayloadAttribute)
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("no %s attribute in served markup: %w", sel.PayloadAttribute, menu.ErrEmptyPayload)
	}

	var payload menu.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w (%d bytes): %v", menu.ErrPayloadParse, len(raw), err)
	}

	date := strings.TrimSpace(doc.Find(sel.DateLabel).First().Text())
	period := strings.TrimSpace(doc.Find(sel.PeriodLabel).First().Text())
	entry := menu.Entry{
		Date:     date,
		Period:   period,
		Sections: menu.BuildSections(payload.Items),
	}
	f.logger.Info("captured served state",
		zap.String("date", date),
		zap.String("period", period),
		zap.Int("sections", len(entry.Sections)),
	)

	result := &menu.Result{Entries: []menu.Entry{entry}}
	if date != "" {
		result.Dates = []string{date}
	}
	return result, nil
}
