package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lukemcguire/sitemapgen/crawler"
	"github.com/lukemcguire/sitemapgen/result"
)

func testScheduler(t *testing.T) *crawler.Scheduler {
	t.Helper()
	sched, err := crawler.New(crawler.Config{
		StartURL:       "https://example.com",
		Concurrency:    2,
		RequestTimeout: 5 * time.Second,
	}, nil, nil)
	if err != nil {
		t.Fatalf("crawler.New() error: %v", err)
	}
	return sched
}

func TestNewModel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan crawler.CrawlEvent, 10)
	logs := make(chan crawler.LogEvent, 10)
	sched := testScheduler(t)

	model := NewModel(ctx, cancel, sched, events, logs)

	if model.ctx != ctx {
		t.Error("expected ctx to be stored in model")
	}
	if model.cancel == nil {
		t.Error("expected cancel to be stored in model")
	}
	if model.sched != sched {
		t.Error("expected scheduler to be stored in model")
	}
	if model.done {
		t.Error("expected done to be false initially")
	}
	if model.StartURL() != "https://example.com" {
		t.Errorf("StartURL() = %q", model.StartURL())
	}
}

func TestUpdate_ResultMsg(t *testing.T) {
	model := Model{events: make(chan crawler.CrawlEvent)}

	msg := resultMsg{
		result: result.CrawlResult{URL: "https://example.com/page"},
		stats:  result.CrawlStats{Crawled: 5, Errors: 1},
	}
	updatedModel, cmd := model.Update(msg)
	updated := updatedModel.(Model)

	if updated.current != "https://example.com/page" {
		t.Errorf("expected current URL to be set, got %s", updated.current)
	}
	if updated.stats.Crawled != 5 {
		t.Errorf("expected stats.Crawled=5, got %d", updated.stats.Crawled)
	}
	if cmd == nil {
		t.Error("expected non-nil cmd to re-subscribe to the event channel")
	}
}

func TestUpdate_LogMsgCapsScrollback(t *testing.T) {
	model := Model{logs: make(chan crawler.LogEvent)}

	var updatedModel tea.Model = model
	for i := 0; i < maxLogLines+3; i++ {
		updatedModel, _ = updatedModel.(Model).Update(logMsg{message: "line"})
	}
	updated := updatedModel.(Model)

	if len(updated.logLines) != maxLogLines {
		t.Errorf("expected log scrollback capped at %d, got %d", maxLogLines, len(updated.logLines))
	}
}

func TestUpdate_DoneMsg(t *testing.T) {
	model := Model{}
	results := map[string]result.CrawlResult{
		"https://example.com/404": {URL: "https://example.com/404", HTTPStatus: 404, Status: result.StatusError},
	}
	stats := result.CrawlStats{Crawled: 10, Errors: 1}

	updatedModel, _ := model.Update(doneMsg{results: results, stats: stats})
	updated := updatedModel.(Model)

	if !updated.done {
		t.Error("expected done=true after doneMsg")
	}
	if len(updated.Results()) != 1 {
		t.Errorf("expected 1 result, got %d", len(updated.Results()))
	}
	if updated.Stats().Crawled != 10 {
		t.Errorf("expected Stats().Crawled=10, got %d", updated.Stats().Crawled)
	}
}

func TestUpdate_SpinnerTickMsg(t *testing.T) {
	model := Model{}
	updatedModel, _ := model.Update(spinner.TickMsg{})
	_ = updatedModel.(Model) // should not panic
}

func TestUpdate_WindowSizeMsg(t *testing.T) {
	model := Model{}
	updatedModel, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := updatedModel.(Model)

	if updated.width != 120 {
		t.Errorf("expected width=120, got %d", updated.width)
	}
}

func TestView_InProgress(t *testing.T) {
	model := Model{
		stats:   result.CrawlStats{Discovered: 4, Crawled: 3},
		current: "https://example.com/checking",
	}
	output := model.View()
	if !strings.Contains(output, "Crawling") {
		t.Errorf("expected 'Crawling' in progress view, got: %s", output)
	}
	if !strings.Contains(output, "3") {
		t.Errorf("expected crawled count in view, got: %s", output)
	}
}

func TestView_DoneNoDeadLinks(t *testing.T) {
	model := Model{
		done:    true,
		results: map[string]result.CrawlResult{"https://example.com/": {URL: "https://example.com/", Status: result.StatusOK, HTTPStatus: 200}},
		stats:   result.CrawlStats{Crawled: 1},
	}
	output := model.View()
	if !strings.Contains(output, "No dead links found") {
		t.Errorf("expected success message in done view, got: %s", output)
	}
}

func TestView_DoneWithError(t *testing.T) {
	model := Model{
		done: true,
		err:  context.Canceled,
	}
	output := model.View()
	if !strings.Contains(output, "Error") {
		t.Errorf("expected error message in done view, got: %s", output)
	}
}

func TestRenderSummary_NoDeadLinks(t *testing.T) {
	output := RenderSummary(nil, result.CrawlStats{Crawled: 10})
	if !strings.Contains(output, "No dead links found") {
		t.Errorf("expected success message, got: %s", output)
	}
	if !strings.Contains(output, "10") {
		t.Errorf("expected crawl count in output, got: %s", output)
	}
}

func TestRenderSummary_WithDeadLinks(t *testing.T) {
	results := []result.CrawlResult{
		{URL: "https://example.com/dead", HTTPStatus: 404, ReferringPages: []result.Referrer{{SourceURL: "https://example.com/"}}},
		{URL: "https://example.com/err", Status: result.StatusError, ErrorMessage: "connection refused"},
	}
	output := RenderSummary(results, result.CrawlStats{Crawled: 25})

	if !strings.Contains(output, "example.com/dead") {
		t.Errorf("expected dead URL in output, got: %s", output)
	}
	if !strings.Contains(output, "404") {
		t.Errorf("expected status code in output, got: %s", output)
	}
	if !strings.Contains(output, "connection refused") {
		t.Errorf("expected error message in output, got: %s", output)
	}
	if !strings.Contains(output, "Found 2 dead links") {
		t.Errorf("expected dead-link count in summary, got: %s", output)
	}
}
