// Package crawler implements the BFS crawl scheduler: it walks a site
// starting from one URL, fetching each discovered page through a
// pluggable Fetcher, tracking referrers and redirect classification, and
// streaming progress as CrawlEvent/LogEvent values.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lukemcguire/sitemapgen/fetch"
	"github.com/lukemcguire/sitemapgen/result"
	"github.com/lukemcguire/sitemapgen/robots"
	"github.com/lukemcguire/sitemapgen/urlutil"
)

// maxPendingReferrers mirrors result.CrawlResult's own referrer cap: a
// target mentioned before it has a CrawlResult of its own still only
// remembers up to 50 distinct sources while it waits to be created.
const maxPendingReferrers = 50

// memoryLimitMB bounds the soft heap limit MemoryWatcher enforces during a
// crawl; large sites accumulate many in-flight bodies and extracted link
// slices, so this is generous rather than tight.
const memoryLimitMB = 512

// Scheduler runs one BFS crawl to completion. It owns the result map,
// seen-set, pending-referrer map, and aggregate stats; all of its
// exported methods are safe to call from multiple goroutines.
type Scheduler struct {
	cfg     Config
	fetcher fetch.Fetcher
	robots  *robots.Checker
	visited *VisitedTracker
	limiter *AdaptiveLimiter
	memory  *MemoryWatcher

	startHost   string
	startScheme string

	mu               sync.Mutex
	results          map[string]*result.CrawlResult
	pendingReferrers map[string][]result.Referrer
	stats            result.CrawlStats

	seedsMu sync.Mutex
	seeds   []job

	cancelled atomic.Bool

	events chan<- CrawlEvent
	logs   chan<- LogEvent
}

// New builds a Scheduler for cfg, selecting the direct or rendered fetcher
// per cfg.Render. events and logs may be nil to run silently.
func New(cfg Config, events chan<- CrawlEvent, logs chan<- LogEvent) (*Scheduler, error) {
	parsed, err := url.Parse(cfg.StartURL)
	if err != nil {
		return nil, fmt.Errorf("parse start URL: %w", err)
	}

	var fetcher fetch.Fetcher
	if cfg.Render {
		fetcher, err = fetch.NewRenderedFetcher(cfg.StartURL, cfg.UserAgent, cfg.Headless, cfg.ChromeExecPath)
	} else {
		fetcher, err = fetch.NewDirectFetcher(cfg.StartURL, cfg.UserAgent, cfg.RequestTimeout, cfg.Cookies)
	}
	if err != nil {
		return nil, fmt.Errorf("build fetcher: %w", err)
	}

	visited, err := NewVisitedTracker()
	if err != nil {
		return nil, fmt.Errorf("build visited tracker: %w", err)
	}

	targetRTT := cfg.RequestTimeout / 4
	if targetRTT <= 0 {
		targetRTT = 2 * time.Second
	}

	s := &Scheduler{
		cfg:              cfg,
		fetcher:          fetcher,
		robots:           robots.NewChecker(),
		visited:          visited,
		limiter:          NewAdaptiveLimiter(int(cfg.Concurrency)*2, targetRTT),
		memory:           NewMemoryWatcher(memoryLimitMB),
		startHost:        parsed.Hostname(),
		startScheme:      parsed.Scheme,
		results:          make(map[string]*result.CrawlResult),
		pendingReferrers: make(map[string][]result.Referrer),
		events:           events,
		logs:             logs,
	}
	s.memory.SetThrottleCallback(func(level ThrottleLevel) {
		switch level {
		case ThrottleCritical:
			s.logf("memory pressure critical")
		case ThrottleWarning:
			s.logf("memory pressure elevated")
		}
	})
	return s, nil
}

// AddSeedURLs injects additional entry points (typically extracted from a
// published sitemap) at depth 1 with the start URL as parent. Only
// same-host URLs are accepted; the return value is the number queued for
// the next Run call.
func (s *Scheduler) AddSeedURLs(urls []string) int {
	s.seedsMu.Lock()
	defer s.seedsMu.Unlock()

	accepted := 0
	for _, raw := range urls {
		canonical, err := urlutil.Canonicalize(raw, nil)
		if err != nil {
			continue
		}
		if !urlutil.IsInternal(canonical, s.startHost) {
			continue
		}
		s.seeds = append(s.seeds, job{url: canonical, depth: 1, parent: s.cfg.StartURL})
		accepted++
	}
	return accepted
}

// Cancel stops the scheduler from starting new fetches. In-flight fetches
// are allowed to finish; Run drains them before returning.
func (s *Scheduler) Cancel() {
	s.cancelled.Store(true)
}

func (s *Scheduler) isCancelled() bool {
	return s.cancelled.Load()
}

// StartURL returns the crawl's entry point.
func (s *Scheduler) StartURL() string {
	return s.cfg.StartURL
}

// Results returns a snapshot of the scheduler's current CrawlResult map,
// safe to call while a crawl is in flight.
func (s *Scheduler) Results() map[string]result.CrawlResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]result.CrawlResult, len(s.results))
	for u, cr := range s.results {
		out[u] = *cr
	}
	return out
}

// Run executes the crawl to completion: start URL at depth 0, any seeds
// queued via AddSeedURLs at depth 1, then BFS outward until the queue and
// all in-flight tasks are drained or the context is cancelled. It returns
// the final result map and aggregate stats.
func (s *Scheduler) Run(ctx context.Context) (map[string]result.CrawlResult, result.CrawlStats, error) {
	defer func() {
		if closeErr := s.visited.Close(); closeErr != nil {
			s.logf("close visited tracker: %v", closeErr)
		}
		if closer, ok := s.fetcher.(interface{ Close() error }); ok {
			if closeErr := closer.Close(); closeErr != nil {
				s.logf("close fetcher: %v", closeErr)
			}
		}
	}()

	startURL, err := urlutil.Canonicalize(s.cfg.StartURL, nil)
	if err != nil {
		return nil, result.CrawlStats{}, fmt.Errorf("canonicalize start URL: %w", err)
	}

	s.mu.Lock()
	s.stats.StartTime = startTime()
	s.mu.Unlock()

	if s.cfg.RespectRobots {
		if err := s.robots.Load(ctx, startURL); err != nil {
			s.logf("robots.txt: %v", err)
		}
	}

	jobs := make(chan job, s.cfg.Concurrency*4)
	var pending sync.WaitGroup

	concurrency := s.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var workers sync.WaitGroup
	for range concurrency {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for j := range jobs {
				s.processJob(ctx, j, &pending, jobs)
				pending.Done()
			}
		}()
	}

	// A freshly constructed tracker has never seen this URL; the call is
	// still made (rather than skipped) so the start URL occupies the same
	// seen-set slot every other enqueue path uses.
	s.visited.VisitIfNew(startURL)
	s.mu.Lock()
	s.stats.Discovered++
	s.mu.Unlock()
	pending.Add(1)
	jobs <- job{url: startURL, depth: 0, parent: ""}

	s.seedsMu.Lock()
	seeds := s.seeds
	s.seeds = nil
	s.seedsMu.Unlock()
	for _, seed := range seeds {
		if !s.visited.VisitIfNew(seed.url) {
			continue
		}
		s.mu.Lock()
		s.stats.Discovered++
		s.mu.Unlock()
		pending.Add(1)
		jobs <- seed
	}

	pending.Wait()
	close(jobs)
	workers.Wait()

	s.mu.Lock()
	s.stats.Finalize(time.Now())
	finalStats := s.stats
	s.mu.Unlock()

	return s.Results(), finalStats, nil
}

// processJob runs the full per-URL task: robots check, fetch-with-retry,
// classification, referrer/stats bookkeeping, and child enqueueing. It
// owns exactly one pending-count unit, released by its caller via
// pending.Done() after this returns.
func (s *Scheduler) processJob(ctx context.Context, j job, pending *sync.WaitGroup, jobs chan<- job) {
	if s.isCancelled() {
		return
	}

	cr := s.getOrCreateResult(j.url, j.depth, j.parent)

	if s.cfg.RespectRobots && s.robots.IsLoaded() && !s.robots.IsAllowed(j.url) {
		s.mu.Lock()
		cr.Status = result.StatusSkipped
		cr.ErrorMessage = "robots.txt disallowed"
		s.stats.Skipped++
		s.mu.Unlock()
		s.emit(ctx, cr)
		return
	}

	if s.isCancelled() {
		return
	}

	s.mu.Lock()
	cr.Status = result.StatusCrawling
	s.mu.Unlock()
	s.emit(ctx, cr)

	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	start := time.Now()
	outcome, fetchErr := fetchWithRetry(ctx, s.fetcher, j.url, s.cfg.MaxRetries)
	elapsed := time.Since(start)
	s.limiter.ObserveRTT(elapsed)
	s.memory.Check()

	if fetchErr != nil {
		s.mu.Lock()
		cr.Status = result.StatusError
		cr.ErrorMessage = result.FriendlyMessage(fetchErr)
		cr.LoadTimeMs = elapsed.Milliseconds()
		s.stats.Errors++
		s.stats.Crawled++
		s.mu.Unlock()
		s.emit(ctx, cr)
		return
	}

	s.mu.Lock()
	cr.HTTPStatus = outcome.HTTPStatus
	cr.ContentType = outcome.ContentType
	cr.LastModified = outcome.LastModified
	cr.HasForm = outcome.HasForm
	cr.LoadTimeMs = elapsed.Milliseconds()
	cr.LinksFound = len(outcome.Links)

	switch {
	case outcome.Redirected && !urlutil.IsInternal(outcome.FinalURL, s.startHost):
		cr.Status = result.StatusRedirectExternal
		cr.RedirectURL = outcome.FinalURL
		s.stats.ThreeXX++
	case outcome.Redirected:
		cr.Status = result.StatusRedirect
		cr.RedirectURL = outcome.FinalURL
		s.stats.ThreeXX++
	case outcome.HTTPStatus >= 400:
		cr.Status = result.StatusError
		s.bumpHTTPBucketLocked(outcome.HTTPStatus)
		s.stats.Errors++
	default:
		cr.Status = result.StatusOK
		s.stats.TwoXX++
	}
	s.stats.Crawled++
	if j.depth > s.stats.MaxDepthReached {
		s.stats.MaxDepthReached = j.depth
	}
	s.mu.Unlock()

	for _, link := range outcome.Links {
		s.handleLink(ctx, j.url, link, j.depth, pending, jobs)
	}

	s.emit(ctx, cr)
}

// handleLink canonicalizes one extracted link, records the referrer, and
// either enqueues it as a new job, inserts a MAX_DEPTH phantom, or drops
// it as already seen.
func (s *Scheduler) handleLink(ctx context.Context, sourceURL string, link fetch.Link, sourceDepth int, pending *sync.WaitGroup, jobs chan<- job) {
	target, err := urlutil.Canonicalize(link.URL, nil)
	if err != nil {
		return
	}
	if promoted, perr := urlutil.PromoteScheme(target, s.startScheme, s.startHost); perr == nil {
		target = promoted
	}

	// Referrer bookkeeping happens for every extracted link regardless of
	// whether it ends up enqueued; a skippable or over-depth target still
	// has pages pointing at it.
	s.trackReferrer(target, sourceURL, link.Text)

	if urlutil.HasSkippableExtension(target) {
		return
	}

	childDepth := sourceDepth + 1
	if childDepth > s.cfg.MaxDepth {
		if s.visited.VisitIfNew(target) {
			s.insertMaxDepthPhantom(target, childDepth, sourceURL)
		}
		return
	}

	if !s.visited.VisitIfNew(target) {
		return
	}

	s.mu.Lock()
	s.stats.Discovered++
	if childDepth > s.stats.MaxDepthReached {
		s.stats.MaxDepthReached = childDepth
	}
	s.mu.Unlock()

	pending.Add(1)
	go func() {
		select {
		case jobs <- job{url: target, depth: childDepth, parent: sourceURL}:
		case <-ctx.Done():
			pending.Done()
		}
	}()
}

func (s *Scheduler) insertMaxDepthPhantom(target string, depth int, parent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	phantom := &result.CrawlResult{
		URL:       target,
		Status:    result.StatusMaxDepth,
		Depth:     depth,
		ParentURL: parent,
	}
	if pending, ok := s.pendingReferrers[target]; ok {
		phantom.ReferringPages = pending
		delete(s.pendingReferrers, target)
	}
	s.results[target] = phantom
	s.stats.Discovered++
}

// getOrCreateResult returns the existing CrawlResult for u, or creates a
// fresh PENDING one, draining any pending referrers recorded before u was
// first enqueued.
func (s *Scheduler) getOrCreateResult(u string, depth int, parent string) *result.CrawlResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cr, ok := s.results[u]; ok {
		return cr
	}
	cr := &result.CrawlResult{URL: u, Status: result.StatusPending, Depth: depth, ParentURL: parent}
	if pending, ok := s.pendingReferrers[u]; ok {
		cr.ReferringPages = pending
		delete(s.pendingReferrers, u)
	}
	s.results[u] = cr
	return cr
}

// trackReferrer records that sourceURL links to target. If target already
// has a CrawlResult, the entry goes straight on it (respecting its own
// 50-entry cap); otherwise it waits in pendingReferrers for when target's
// result is created.
func (s *Scheduler) trackReferrer(target, sourceURL, linkText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cr, ok := s.results[target]; ok {
		cr.AddReferrer(sourceURL, linkText)
		return
	}

	list := s.pendingReferrers[target]
	if len(list) >= maxPendingReferrers {
		return
	}
	for _, existing := range list {
		if existing.SourceURL == sourceURL {
			return
		}
	}
	s.pendingReferrers[target] = append(list, result.Referrer{SourceURL: sourceURL, LinkText: linkText})
}

// bumpHTTPBucketLocked increments the 4xx/5xx counter for status. Caller
// must hold s.mu.
func (s *Scheduler) bumpHTTPBucketLocked(status int) {
	switch {
	case status >= 500:
		s.stats.FiveXX++
	case status >= 400:
		s.stats.FourXX++
	}
}

func (s *Scheduler) emit(ctx context.Context, cr *result.CrawlResult) {
	if s.events == nil {
		return
	}
	s.mu.Lock()
	snapshot := *cr
	snapshot.ReferringPages = append([]result.Referrer(nil), cr.ReferringPages...)
	statsSnapshot := s.stats
	s.mu.Unlock()

	select {
	case s.events <- CrawlEvent{Result: snapshot, Stats: statsSnapshot}:
	case <-ctx.Done():
	}
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logs == nil {
		return
	}
	select {
	case s.logs <- LogEvent{Message: fmt.Sprintf(format, args...)}:
	default:
	}
}

// startTime exists so tests can observe that StartTime is set without
// depending on wall-clock determinism elsewhere in the package.
func startTime() time.Time {
	return time.Now()
}
