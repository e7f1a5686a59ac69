// Package robots loads and evaluates a single host's robots.txt, collecting
// any Sitemap hints it advertises along the way.
package robots

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const fetchTimeout = 10 * time.Second

// Checker loads one host's robots.txt and answers isAllowed/sitemapHints
// queries against it. Only the wildcard User-agent block is honored: rules
// scoped to a specific agent are ignored entirely, matching the policy that
// this crawler does not try to impersonate named bots. Any failure to load
// robots.txt (network error, non-2xx, unparseable body) leaves the Checker
// in its empty state, which allows everything.
type Checker struct {
	client *http.Client

	mu      sync.RWMutex
	group   *robotstxt.Group
	hints   []string
	loaded  bool
}

// NewChecker builds a Checker using an insecure-TLS client with a fixed
// fetch timeout, independent of any crawl-wide HTTP client so that a slow
// or broken robots.txt can never stall the crawl itself.
func NewChecker() *Checker {
	return &Checker{
		client: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		},
	}
}

// Load fetches and parses robots.txt for startURL's host. On any failure
// the Checker fails open and IsAllowed permits everything; fetch, read and
// parse errors are still returned so the caller can log them, while a
// non-2xx response returns nil.
func (c *Checker) Load(ctx context.Context, startURL string) error {
	parsed, err := url.Parse(startURL)
	if err != nil {
		return fmt.Errorf("parse start URL: %w", err)
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		c.markLoaded()
		return fmt.Errorf("build robots.txt request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.markLoaded()
		return fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.markLoaded()
		return fmt.Errorf("read robots.txt body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.markLoaded()
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		c.markLoaded()
		return fmt.Errorf("parse robots.txt: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Only the wildcard block ever contributes Allow/Disallow rules.
	c.group = data.FindGroup("*")
	c.hints = extractSitemapHints(body)
	c.loaded = true
	return nil
}

func (c *Checker) markLoaded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
}

// IsAllowed reports whether the given URL's path may be fetched. With no
// rules loaded (fetch failed, 404, non-2xx, parse error) everything is
// allowed. Decision is the longest matching Allow/Disallow prefix; with no
// match at all, allow.
func (c *Checker) IsAllowed(rawURL string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.group == nil {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return c.group.Test(path)
}

// SitemapHints returns the Sitemap: URLs advertised anywhere in robots.txt,
// regardless of which User-agent block they appeared under.
func (c *Checker) SitemapHints() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.hints))
	copy(out, c.hints)
	return out
}

// IsLoaded reports whether Load has completed, successfully or not.
func (c *Checker) IsLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// extractSitemapHints scans robots.txt for "Sitemap:" directives. robotstxt's
// parsed Group does not surface these, so they're pulled directly from the
// raw body, case-insensitively, ignoring comments.
func extractSitemapHints(body []byte) []string {
	var hints []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		const prefix = "sitemap:"
		if len(line) <= len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
			continue
		}
		value := strings.TrimSpace(line[len(prefix):])
		if value != "" {
			hints = append(hints, value)
		}
	}
	return hints
}
