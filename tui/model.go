// Package tui provides the Bubble Tea terminal UI for sitemapgen,
// displaying live crawl progress and a styled summary of results.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lukemcguire/sitemapgen/crawler"
	"github.com/lukemcguire/sitemapgen/result"
)

// maxLogLines bounds the scrollback kept for the live log panel.
const maxLogLines = 8

// Model is the Bubble Tea model for the crawl TUI.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	sched  *crawler.Scheduler
	events <-chan crawler.CrawlEvent
	logs   <-chan crawler.LogEvent

	spinner spinner.Model

	current  string
	logLines []string
	stats    result.CrawlStats

	quitting bool
	done     bool
	results  map[string]result.CrawlResult
	err      error
	width    int
}

// NewModel creates a TUI model wired to the given scheduler and its event
// and log channels.
func NewModel(ctx context.Context, cancel context.CancelFunc, sched *crawler.Scheduler, events <-chan crawler.CrawlEvent, logs <-chan crawler.LogEvent) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		sched:   sched,
		events:  events,
		logs:    logs,
		spinner: spin,
	}
}

// Init starts the spinner, the crawl itself, and the event/log listeners
// concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCrawl(), waitForResult(m.events), waitForLog(m.logs))
}

// startCrawl returns a tea.Cmd that runs the scheduler to completion and
// reports its final state as a doneMsg.
func (m Model) startCrawl() tea.Cmd {
	return func() tea.Msg {
		results, stats, err := m.sched.Run(m.ctx)
		if err != nil {
			err = fmt.Errorf("crawl: %w", err)
		}
		return doneMsg{results: results, stats: stats, err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case resultMsg:
		m.current = msg.result.URL
		m.stats = msg.stats
		return m, waitForResult(m.events)

	case logMsg:
		m.logLines = append(m.logLines, msg.message)
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
		return m, waitForLog(m.logs)

	case doneMsg:
		m.done = true
		m.results = msg.results
		m.stats = msg.stats
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.done {
		return RenderSummary(m.Results(), m.stats)
	}

	var log string
	for _, line := range m.logLines {
		log += dimStyle.Render("  "+line) + "\n"
	}
	return fmt.Sprintf("%s Crawling... discovered %d, crawled %d, errors %d\n%s%s\n",
		m.spinner.View(), m.stats.Discovered, m.stats.Crawled, m.stats.Errors,
		log, dimStyle.Render("  "+m.current))
}

// Results returns the final crawl results as a slice, in no particular
// order. sitemap.Write sorts by URL internally; the report package keeps
// the order it is given.
func (m Model) Results() []result.CrawlResult {
	out := make([]result.CrawlResult, 0, len(m.results))
	for _, r := range m.results {
		out = append(out, r)
	}
	return out
}

// Stats returns the final aggregate crawl statistics.
func (m Model) Stats() result.CrawlStats {
	return m.stats
}

// StartURL returns the crawl's entry point.
func (m Model) StartURL() string {
	return m.sched.StartURL()
}
