package tenkites

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"dinemenu/internal/menu"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

const reportTitle = "Dining Menu"

var reportTemplate = template.Must(template.New("report").Parse(`<h1>{{.Title}}</h1>
{{if .Source}}<p>Source: <a href="{{.Source}}">{{.Source}}</a></p>
{{end}}{{range .Days}}<section>
<h2>{{.Label}}</h2>
{{range .Meals}}<h3>{{.Label}}</h3>
{{range .Sections}}<h4>{{.Title}}</h4>
<ul>
{{range .Items}}<li>{{.}}</li>
{{end}}</ul>
{{else}}<p>Menu not posting.</p>
{{end}}{{else}}<p>No meals scheduled.</p>
{{end}}</section>
{{end}}`))

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}</body>
</html>
`))

// MenuContent is the scraped menu as a report. It implements
// scraper.Content.
type MenuContent struct {
	source  string
	entries []menu.Entry
	days    []Day
}

// NewMenuContent builds the report for result. Dates skipped for having no
// menu are shown as empty days; other skipped dates are left out.
func NewMenuContent(source string, result *menu.Result, vocabulary []string) *MenuContent {
	entries := result.Entries
	if entries == nil {
		entries = []menu.Entry{}
	}

	shown := make(map[string]bool)
	for _, e := range entries {
		shown[e.Date] = true
	}
	for _, s := range result.Skips {
		if s.Period == "" && errors.Is(s.Err, menu.ErrNoMenu) {
			shown[s.Date] = true
		}
	}
	var dates []string
	for _, d := range result.Dates {
		if shown[d] {
			dates = append(dates, d)
		}
	}

	return &MenuContent{
		source:  source,
		entries: entries,
		days:    GroupByDay(dates, entries, vocabulary),
	}
}

// Entries returns the flat entry list in processing order.
func (c *MenuContent) Entries() []menu.Entry { return c.entries }

// Days returns the report grouped by day.
func (c *MenuContent) Days() []Day { return c.days }

func (c *MenuContent) body() (string, error) {
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, struct {
		Title  string
		Source string
		Days   []Day
	}{reportTitle, c.source, c.days})
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

func (c *MenuContent) ToHTML() (string, error) {
	body, err := c.body()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = documentTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{reportTitle, template.HTML(body)})
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

func (c *MenuContent) ToMarkdown() (string, error) {
	body, err := c.body()
	if err != nil {
		return "", err
	}
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

func (c *MenuContent) ToText() (string, error) {
	var sb strings.Builder
	sb.WriteString(reportTitle + "\n")
	for _, day := range c.days {
		sb.WriteString("\n" + day.Label + "\n")
		if len(day.Meals) == 0 {
			sb.WriteString("  No meals scheduled.\n")
			continue
		}
		for _, meal := range day.Meals {
			sb.WriteString("  " + meal.Label + "\n")
			if len(meal.Sections) == 0 {
				sb.WriteString("    Menu not posting.\n")
				continue
			}
			for _, s := range meal.Sections {
				sb.WriteString(fmt.Sprintf("    %s: %s\n", s.Title, strings.Join(s.Items, ", ")))
			}
		}
	}
	return sb.String(), nil
}

func (c *MenuContent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c.entries, "", "  ")
}

func (c *MenuContent) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Date", "Period", "Section", "Item"})
	for _, e := range c.entries {
		if len(e.Sections) == 0 {
			_ = w.Write([]string{e.Date, e.Period, "", ""})
			continue
		}
		for _, s := range e.Sections {
			if len(s.Items) == 0 {
				_ = w.Write([]string{e.Date, e.Period, s.Title, ""})
				continue
			}
			for _, item := range s.Items {
				_ = w.Write([]string{e.Date, e.Period, s.Title, item})
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.String(), nil
}
