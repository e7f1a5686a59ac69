package result

import (
	"fmt"
	"io"
)

// PrintSummary writes a short human-readable summary of a finished crawl to w.
func PrintSummary(w io.Writer, stats CrawlStats) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	writef("Crawled %d URLs (%d discovered) in %.1fs (%.1f/s)\n",
		stats.Crawled, stats.Discovered, stats.EndTime.Sub(stats.StartTime).Seconds(), stats.URLsPerSecond)
	writef("  2xx: %d  3xx: %d  4xx: %d  5xx: %d  errors: %d  skipped: %d\n",
		stats.TwoXX, stats.ThreeXX, stats.FourXX, stats.FiveXX, stats.Errors, stats.Skipped)
	if stats.MaxDepthReached > 0 {
		writef("  max depth reached: %d\n", stats.MaxDepthReached)
	}
}
