// Package sitemap discovers, loads, and writes XML sitemaps: the
// auto-discovery/recursive-load half mirrors a published sitemap back into
// a set of URLs for diffing against a crawl; the writer half produces one
// from crawl results.
package sitemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// commonPaths are tried, in order, after any robots.txt hints are exhausted.
var commonPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap/sitemap.xml",
	"/sitemapindex.xml",
	"/sitemap/index.xml",
}

const discoverTimeout = 15 * time.Second

// Discover finds a site's sitemap URL, trying robotsHints first (already
// loaded by the crawler's robots.Checker) and then the common well-known
// paths. It returns the first candidate that answers as a valid sitemap, or
// "" if none do.
func Discover(ctx context.Context, baseURL string, robotsHints []string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	origin := (&url.URL{Scheme: parsed.Scheme, Host: parsed.Host}).String()

	client := &http.Client{Timeout: discoverTimeout}

	for _, hint := range robotsHints {
		if isValidSitemap(ctx, client, hint) {
			return hint, nil
		}
	}
	for _, path := range commonPaths {
		candidate := origin + path
		if isValidSitemap(ctx, client, candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// isValidSitemap reports whether rawURL looks like a real sitemap: a HEAD
// that returns 2xx with an XML-ish content type, or — since many servers
// misreport HEAD responses — a ranged GET of the first 512 bytes containing
// one of the telltale sitemap markers.
func isValidSitemap(ctx context.Context, client *http.Client, rawURL string) bool {
	headReq, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	if resp, err := client.Do(headReq); err == nil {
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			ct := strings.ToLower(resp.Header.Get("Content-Type"))
			if strings.Contains(ct, "xml") {
				return true
			}
		}
	}

	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	getReq.Header.Set("Range", "bytes=0-511")
	resp, err := client.Do(getReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return false
	}
	buf := make([]byte, 512)
	n, _ := io.ReadFull(resp.Body, buf)
	snippet := string(buf[:n])
	return strings.Contains(snippet, "<?xml") || strings.Contains(snippet, "<urlset") || strings.Contains(snippet, "<sitemapindex")
}
