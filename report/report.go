// Package report renders crawl results into the output formats consumed
// downstream: a JSON error report, a wiki-markup dead-link table, and a
// forms export.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lukemcguire/sitemapgen/result"
)

// ErrorReport is the JSON shape written by WriteErrorReportJSON.
type ErrorReport struct {
	GeneratedAt string             `json:"generatedAt"`
	StartURL    string             `json:"startUrl"`
	Summary     ErrorReportSummary `json:"summary"`
	DeadLinks   []DeadLink         `json:"deadLinks"`
}

// ErrorReportSummary mirrors the aggregate counters from a CrawlStats.
type ErrorReportSummary struct {
	Discovered int     `json:"discovered"`
	Crawled    int     `json:"crawled"`
	Errors     int     `json:"errors"`
	TwoXX      int     `json:"twoXX"`
	ThreeXX    int     `json:"threeXX"`
	FourXX     int     `json:"fourXX"`
	FiveXX     int     `json:"fiveXX"`
	DurationMs int64   `json:"durationMs"`
	URLsPerSec float64 `json:"urlsPerSecond"`
}

// DeadLink is one row of the error report / wiki table.
type DeadLink struct {
	URL            string            `json:"url"`
	HTTPStatus     int               `json:"httpStatus"`
	Status         result.PageStatus `json:"status"`
	ErrorMessage   string            `json:"errorMessage,omitempty"`
	ReferringPages []result.Referrer `json:"referringPages"`
}

// deadLinks filters results down to actual dead links: an HTTP status of
// 400+, or a terminal ERROR/TIMEOUT status regardless of HTTP status.
func deadLinks(results []result.CrawlResult) []result.CrawlResult {
	var out []result.CrawlResult
	for _, r := range results {
		if r.HTTPStatus >= 400 || r.Status == result.StatusError || r.Status == result.StatusTimeout {
			out = append(out, r)
		}
	}
	return out
}

// BuildErrorReport assembles the JSON error report document for results
// captured at generatedAt.
func BuildErrorReport(results []result.CrawlResult, stats result.CrawlStats, startURL string, generatedAt time.Time) ErrorReport {
	errs := deadLinks(results)
	links := make([]DeadLink, 0, len(errs))
	for _, r := range errs {
		links = append(links, DeadLink{
			URL:            r.URL,
			HTTPStatus:     r.HTTPStatus,
			Status:         r.Status,
			ErrorMessage:   r.ErrorMessage,
			ReferringPages: r.ReferringPages,
		})
	}
	return ErrorReport{
		GeneratedAt: generatedAt.Format(time.RFC3339),
		StartURL:    startURL,
		Summary: ErrorReportSummary{
			Discovered: stats.Discovered,
			Crawled:    stats.Crawled,
			Errors:     stats.Errors,
			TwoXX:      stats.TwoXX,
			ThreeXX:    stats.ThreeXX,
			FourXX:     stats.FourXX,
			FiveXX:     stats.FiveXX,
			DurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
			URLsPerSec: stats.URLsPerSecond,
		},
		DeadLinks: links,
	}
}

// WriteErrorReportJSON marshals an ErrorReport as UTF-8 JSON, 2-space
// indented, with HTML escaping disabled so URLs with "&" render plainly.
func WriteErrorReportJSON(report ErrorReport) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("encode error report: %w", err)
	}
	return buf.Bytes(), nil
}

// WikiDeadLinkTable renders the same dead-link filter as a wiki markup
// table: header row `||URL||HTTP||Fehler||Verweisende Seiten||`, one row
// per dead link with its referrers joined by " \\ ". Returns "" if there
// are no dead links.
func WikiDeadLinkTable(results []result.CrawlResult) string {
	errs := deadLinks(results)
	if len(errs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("||URL||HTTP||Fehler||Verweisende Seiten||")

	for _, r := range errs {
		httpCode := "-"
		if r.HTTPStatus != 0 {
			httpCode = fmt.Sprintf("%d", r.HTTPStatus)
		}
		fmt.Fprintf(&b, "\n|[%s]|%s|%s|%s|", r.URL, httpCode, r.Status, renderReferrers(r.ReferringPages))
	}
	return b.String()
}

func renderReferrers(refs []result.Referrer) string {
	if len(refs) == 0 {
		return "-"
	}
	entries := make([]string, 0, len(refs))
	for _, ref := range refs {
		text := strings.TrimSpace(ref.LinkText)
		if text != "" {
			entries = append(entries, fmt.Sprintf(`"%s" [%s]`, text, ref.SourceURL))
		} else {
			entries = append(entries, fmt.Sprintf("[%s]", ref.SourceURL))
		}
	}
	return strings.Join(entries, ` \\ `)
}

// FormsExport is the JSON shape written by WriteFormsExportJSON.
type FormsExport struct {
	URLs []string `json:"urls"`
}

// BuildFormsExport filters results down to pages with a form that returned
// HTTP 200, in their original order.
func BuildFormsExport(results []result.CrawlResult) FormsExport {
	var urls []string
	for _, r := range results {
		if r.HasForm && r.HTTPStatus == 200 {
			urls = append(urls, r.URL)
		}
	}
	return FormsExport{URLs: urls}
}

// WriteFormsExportJSON marshals a FormsExport as UTF-8 JSON, 2-space
// indented.
func WriteFormsExportJSON(export FormsExport) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return nil, fmt.Errorf("encode forms export: %w", err)
	}
	return buf.Bytes(), nil
}
