package crawler

import "github.com/lukemcguire/sitemapgen/result"

// CrawlEvent reports one status transition for a single URL. The scheduler
// emits one event per PENDING/CRAWLING entry and one per terminal state;
// terminal events across different URLs may arrive in any order.
type CrawlEvent struct {
	Result result.CrawlResult
	Stats  result.CrawlStats
}

// LogEvent is a single human-readable progress line, mirroring the onLog
// callback in the core API.
type LogEvent struct {
	Message string
}
