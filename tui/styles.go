package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lukemcguire/sitemapgen/result"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	urlStyle         = lipgloss.NewStyle()
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// categoryOrder defines the display order for dead-link groups (most to
// least actionable).
var categoryOrder = []string{"5xx", "4xx", "TIMEOUT", "ERROR"}

// category buckets a dead link the same way the error report does, but
// into a display group rather than a JSON field.
func category(r result.CrawlResult) string {
	switch {
	case r.HTTPStatus >= 500:
		return "5xx"
	case r.HTTPStatus >= 400:
		return "4xx"
	case r.Status == result.StatusTimeout:
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

func isDeadLink(r result.CrawlResult) bool {
	return r.HTTPStatus >= 400 || r.Status == result.StatusError || r.Status == result.StatusTimeout
}

// RenderSummary produces a Lip Gloss styled summary of a finished crawl,
// grouping dead links by category and tabulating each group.
func RenderSummary(results []result.CrawlResult, stats result.CrawlStats) string {
	grouped := make(map[string][]result.CrawlResult)
	var total int
	for _, r := range results {
		if !isDeadLink(r) {
			continue
		}
		total++
		cat := category(r)
		grouped[cat] = append(grouped[cat], r)
	}

	var builder strings.Builder

	if total == 0 {
		builder.WriteString(successStyle.Render("No dead links found!"))
		builder.WriteString("\n")
		builder.WriteString(dimStyle.Render(fmt.Sprintf(
			"Crawled %d URLs in %s",
			stats.Crawled,
			stats.EndTime.Sub(stats.StartTime).Round(1_000_000),
		)))
		builder.WriteString("\n")
		return builder.String()
	}

	for _, cat := range categoryOrder {
		links := grouped[cat]
		if len(links) == 0 {
			continue
		}

		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## %s (%d)", cat, len(links))))
		builder.WriteString("\n")

		rows := make([][]string, 0, len(links))
		for _, link := range links {
			status := fmt.Sprintf("%d", link.HTTPStatus)
			if link.ErrorMessage != "" {
				status = link.ErrorMessage
			}
			referrer := "-"
			if len(link.ReferringPages) > 0 {
				referrer = link.ReferringPages[0].SourceURL
			}
			rows = append(rows, []string{link.URL, status, referrer})
		}

		catTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("URL", "Status", "Found On").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 {
					return statusErrorStyle
				}
				return urlStyle
			}).
			Rows(rows...)

		builder.WriteString(catTable.Render())
		builder.WriteString("\n\n")
	}

	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"Found %d dead links out of %d URLs crawled (%s)",
		total,
		stats.Crawled,
		stats.EndTime.Sub(stats.StartTime).Round(1_000_000),
	)))
	builder.WriteString("\n")

	return builder.String()
}
