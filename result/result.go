// Package result defines the crawl's data model: per-URL results, their
// status lifecycle, aggregate statistics, and the friendly-message mapping
// used to translate low-level transport errors into reportable text.
package result

import "time"

// PageStatus is the lifecycle state of a single canonical URL's CrawlResult.
// Every result transitions PENDING -> CRAWLING -> one terminal state exactly
// once, except robots-disallowed results, which go straight from PENDING to
// SKIPPED, and MAX_DEPTH phantoms, which start and end in that state without
// ever being fetched.
type PageStatus string

const (
	StatusPending          PageStatus = "PENDING"
	StatusCrawling         PageStatus = "CRAWLING"
	StatusOK               PageStatus = "OK"
	StatusRedirect         PageStatus = "REDIRECT"
	StatusRedirectExternal PageStatus = "REDIRECT_EXTERNAL"
	StatusError            PageStatus = "ERROR"
	StatusTimeout          PageStatus = "TIMEOUT"
	StatusSkipped          PageStatus = "SKIPPED"
	StatusMaxDepth         PageStatus = "MAX_DEPTH"
)

// maxReferrers bounds how many distinct referring pages a single
// CrawlResult remembers.
const maxReferrers = 50

// Referrer is one page known to link to a given target.
type Referrer struct {
	SourceURL string `json:"sourceUrl"`
	LinkText  string `json:"linkText"`
}

// CrawlResult is the per-canonical-URL record the scheduler maintains.
type CrawlResult struct {
	URL            string     `json:"url"`
	Status         PageStatus `json:"status"`
	HTTPStatus     int        `json:"httpStatus"`
	ContentType    string     `json:"contentType,omitempty"`
	LastModified   string     `json:"lastModified,omitempty"`
	Depth          int        `json:"depth"`
	ParentURL      string     `json:"parentUrl,omitempty"`
	LoadTimeMs     int64      `json:"loadTimeMs"`
	LinksFound     int        `json:"linksFound"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	RedirectURL    string     `json:"redirectUrl,omitempty"`
	HasForm        bool       `json:"hasForm"`
	ReferringPages []Referrer `json:"referringPages"`
}

// IsError reports whether this result counts as a dead link: an HTTP
// status of 400 or above, or a transport-level ERROR/TIMEOUT outcome.
// Redirects (internal or external) are never errors even though a
// redirect's own httpStatus is in the 3xx range.
func (r *CrawlResult) IsError() bool {
	if r.Status == StatusRedirect || r.Status == StatusRedirectExternal {
		return false
	}
	return r.HTTPStatus >= 400 || r.Status == StatusError || r.Status == StatusTimeout
}

// IsExternalRedirect reports whether this result left the start host via a redirect.
func (r *CrawlResult) IsExternalRedirect() bool {
	return r.Status == StatusRedirectExternal
}

// AddReferrer records that sourceURL links to this result's target, with
// linkText as the anchor text. A duplicate sourceURL is ignored, and once
// the list reaches maxReferrers no further entries are recorded.
func (r *CrawlResult) AddReferrer(sourceURL, linkText string) {
	if len(r.ReferringPages) >= maxReferrers {
		return
	}
	for _, existing := range r.ReferringPages {
		if existing.SourceURL == sourceURL {
			return
		}
	}
	r.ReferringPages = append(r.ReferringPages, Referrer{SourceURL: sourceURL, LinkText: linkText})
}

// CrawlStats are the aggregate counters the scheduler updates as results
// land. HTTP-category counters (TwoXX..FiveXX) are each incremented exactly
// once per crawled URL; a redirect counts only as ThreeXX even when its
// terminal response was a 200.
type CrawlStats struct {
	Discovered      int       `json:"discovered"`
	Crawled         int       `json:"crawled"`
	Errors          int       `json:"errors"`
	Skipped         int       `json:"skipped"`
	TwoXX           int       `json:"twoXX"`
	ThreeXX         int       `json:"threeXX"`
	FourXX          int       `json:"fourXX"`
	FiveXX          int       `json:"fiveXX"`
	QueueSize       int       `json:"queueSize"`
	MaxDepthReached int       `json:"maxDepthReached"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	URLsPerSecond   float64   `json:"urlsPerSecond"`
}

// Finalize sets EndTime and computes URLsPerSecond from Crawled and the
// elapsed duration. Called once, after the scheduler's main loop exits.
func (s *CrawlStats) Finalize(end time.Time) {
	s.EndTime = end
	duration := s.EndTime.Sub(s.StartTime).Seconds()
	if duration > 0 {
		s.URLsPerSecond = float64(s.Crawled) / duration
	}
}
