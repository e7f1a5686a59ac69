package report_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lukemcguire/sitemapgen/report"
	"github.com/lukemcguire/sitemapgen/result"
)

func sampleResults() []result.CrawlResult {
	return []result.CrawlResult{
		{URL: "https://a.test/", Status: result.StatusOK, HTTPStatus: 200},
		{
			URL: "https://a.test/gone", Status: result.StatusError, HTTPStatus: 404,
			ErrorMessage: "not found",
			ReferringPages: []result.Referrer{
				{SourceURL: "https://a.test/", LinkText: "gone page"},
				{SourceURL: "https://a.test/other"},
			},
		},
		{URL: "https://a.test/timeout", Status: result.StatusTimeout, HTTPStatus: 0, ErrorMessage: "timed out"},
		{URL: "https://a.test/form", Status: result.StatusOK, HTTPStatus: 200, HasForm: true},
	}
}

func TestBuildErrorReportFiltersDeadLinksOnly(t *testing.T) {
	stats := result.CrawlStats{Discovered: 4, Crawled: 4, Errors: 2, TwoXX: 2}
	rpt := report.BuildErrorReport(sampleResults(), stats, "https://a.test/", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	if len(rpt.DeadLinks) != 2 {
		t.Fatalf("DeadLinks = %d, want 2", len(rpt.DeadLinks))
	}
	if rpt.StartURL != "https://a.test/" {
		t.Errorf("StartURL = %q", rpt.StartURL)
	}
	if rpt.Summary.Crawled != 4 {
		t.Errorf("Summary.Crawled = %d, want 4", rpt.Summary.Crawled)
	}
}

func TestWriteErrorReportJSONRoundTrips(t *testing.T) {
	stats := result.CrawlStats{Discovered: 4, Crawled: 4}
	rpt := report.BuildErrorReport(sampleResults(), stats, "https://a.test/", time.Now())

	data, err := report.WriteErrorReportJSON(rpt)
	if err != nil {
		t.Fatalf("WriteErrorReportJSON() error: %v", err)
	}

	var decoded report.ErrorReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if len(decoded.DeadLinks) != 2 {
		t.Errorf("decoded DeadLinks = %d, want 2", len(decoded.DeadLinks))
	}
	if !strings.Contains(string(data), "  \"generatedAt\"") {
		t.Error("expected 2-space indentation")
	}
}

func TestWikiDeadLinkTableFormatsReferrers(t *testing.T) {
	table := report.WikiDeadLinkTable(sampleResults())

	lines := strings.Split(table, "\n")
	if lines[0] != "||URL||HTTP||Fehler||Verweisende Seiten||" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (header + 2 dead links)", len(lines))
	}

	goneRow := lines[1]
	if !strings.Contains(goneRow, `"gone page" [https://a.test/]`) {
		t.Errorf("missing text-annotated referrer: %q", goneRow)
	}
	if !strings.Contains(goneRow, `[https://a.test/other]`) {
		t.Errorf("missing bare referrer: %q", goneRow)
	}
	if !strings.Contains(goneRow, ` \\ `) {
		t.Errorf("referrers should be joined by backslash-backslash: %q", goneRow)
	}

	timeoutRow := lines[2]
	if !strings.Contains(timeoutRow, "|-|") {
		t.Errorf("result with no HTTP status should render '-': %q", timeoutRow)
	}
}

func TestWikiDeadLinkTableEmptyWhenNoDeadLinks(t *testing.T) {
	ok := []result.CrawlResult{{URL: "https://a.test/", Status: result.StatusOK, HTTPStatus: 200}}
	if got := report.WikiDeadLinkTable(ok); got != "" {
		t.Errorf("WikiDeadLinkTable() = %q, want empty", got)
	}
}

func TestBuildFormsExportFiltersHasFormAnd200(t *testing.T) {
	export := report.BuildFormsExport(sampleResults())
	if len(export.URLs) != 1 || export.URLs[0] != "https://a.test/form" {
		t.Errorf("URLs = %v, want [https://a.test/form]", export.URLs)
	}
}
