package sitemap

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	loadTimeout  = 30 * time.Second
	maxLoadDepth = 3
)

// urlsetDoc decodes a <urlset> sitemap, namespace-qualified or not —
// encoding/xml matches the local name regardless of namespace, so one
// struct handles both forms.
type urlsetDoc struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// sitemapIndexDoc decodes a <sitemapindex> document.
type sitemapIndexDoc struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Load fetches sitemapURL and returns the set of page URLs it (recursively,
// through any sitemap index) lists. Depth beyond maxLoadDepth, non-2xx
// responses, and XML parse failures abort just that branch; Load always
// returns whatever was accumulated before the failure, never an error.
func Load(ctx context.Context, sitemapURL string) (map[string]struct{}, error) {
	urls := make(map[string]struct{})
	client := &http.Client{Timeout: loadTimeout}
	loadRecursive(ctx, client, sitemapURL, urls, 0)
	return urls, nil
}

func loadRecursive(ctx context.Context, client *http.Client, sitemapURL string, urls map[string]struct{}, depth int) {
	if depth > maxLoadDepth {
		return
	}

	body, ok := fetchBody(ctx, client, sitemapURL)
	if !ok {
		return
	}

	var index sitemapIndexDoc
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		for _, entry := range index.Sitemaps {
			loc := strings.TrimSpace(entry.Loc)
			if loc == "" {
				continue
			}
			loadRecursive(ctx, client, loc, urls, depth+1)
		}
		return
	}

	var set urlsetDoc
	if err := xml.Unmarshal(body, &set); err != nil {
		return
	}
	for _, entry := range set.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc != "" {
			urls[loc] = struct{}{}
		}
	}
}

func fetchBody(ctx context.Context, client *http.Client, rawURL string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	return body, true
}
