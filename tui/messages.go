package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/sitemapgen/crawler"
	"github.com/lukemcguire/sitemapgen/result"
)

// resultMsg carries one CrawlEvent (a status transition for a single URL)
// into the Bubble Tea update loop.
type resultMsg struct {
	result result.CrawlResult
	stats  result.CrawlStats
}

// logMsg carries one human-readable progress line.
type logMsg struct {
	message string
}

// doneMsg signals the crawl goroutine has returned with its final state.
type doneMsg struct {
	results map[string]result.CrawlResult
	stats   result.CrawlStats
	err     error
}

// waitForResult returns a tea.Cmd that reads one event from the scheduler's
// event channel, or nil once the channel closes (doneMsg, not channel
// close, is what actually ends the view).
func waitForResult(ch <-chan crawler.CrawlEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return resultMsg{result: evt.Result, stats: evt.Stats}
	}
}

// waitForLog returns a tea.Cmd that reads one line from the scheduler's log
// channel, or nil once the channel closes.
func waitForLog(ch <-chan crawler.LogEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return logMsg{message: evt.Message}
	}
}
