package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/lukemcguire/sitemapgen/urlutil"
	"golang.org/x/net/html"
)

const maxDirectRedirects = 10

// DirectFetcher is the default fetcher: a plain HTTP client with a shared
// cookie jar, manual redirect following (so the first redirect's status is
// preserved instead of being swallowed by net/http), and stdlib HTML
// tokenizing for link/form extraction.
type DirectFetcher struct {
	startHost string
	userAgent string
	timeout   time.Duration
	jar       http.CookieJar
}

// NewDirectFetcher builds a DirectFetcher scoped to startHost. cookies are
// seeded into the jar for startHost so every request to that host carries
// them; requests to other hosts (such as an off-host redirect target) do not.
func NewDirectFetcher(startURL, userAgent string, timeout time.Duration, cookies map[string]string) (*DirectFetcher, error) {
	parsed, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parse start URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if len(cookies) > 0 {
		var httpCookies []*http.Cookie
		for name, value := range cookies {
			httpCookies = append(httpCookies, &http.Cookie{Name: name, Value: value, Path: "/"})
		}
		jar.SetCookies(&url.URL{Scheme: parsed.Scheme, Host: parsed.Host}, httpCookies)
	}

	return &DirectFetcher{
		startHost: parsed.Hostname(),
		userAgent: userAgent,
		timeout:   timeout,
		jar:       jar,
	}, nil
}

// Fetch implements Fetcher.
func (f *DirectFetcher) Fetch(ctx context.Context, rawURL string) (Outcome, error) {
	client := &http.Client{
		Timeout: f.timeout,
		Jar:     f.jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	requestURL := rawURL
	var firstStatus int
	var resp *http.Response

	for attempt := 0; attempt < maxDirectRedirects; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return Outcome{}, fmt.Errorf("build request for %s: %w", requestURL, err)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err = client.Do(req) //nolint:bodyclose // closed below or passed through
		if err != nil {
			return Outcome{}, fmt.Errorf("fetch %s: %w", requestURL, err)
		}

		if !isRedirectStatus(resp.StatusCode) {
			break
		}

		if firstStatus == 0 {
			firstStatus = resp.StatusCode
		}
		location := resp.Header.Get("Location")
		resp.Body.Close()
		if location == "" {
			return Outcome{}, fmt.Errorf("redirect from %s missing Location header", requestURL)
		}
		base, err := url.Parse(requestURL)
		if err != nil {
			return Outcome{}, fmt.Errorf("parse redirect source %s: %w", requestURL, err)
		}
		next, err := url.Parse(location)
		if err != nil {
			return Outcome{}, fmt.Errorf("parse redirect target %q: %w", location, err)
		}
		requestURL = base.ResolveReference(next).String()
	}
	if resp == nil || isRedirectStatus(resp.StatusCode) {
		return Outcome{}, fmt.Errorf("too many redirects starting from %s", rawURL)
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()

	outcome := Outcome{
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		FinalURL:     finalURL,
		Redirected:   firstStatus != 0,
	}
	if firstStatus != 0 {
		outcome.HTTPStatus = firstStatus
	} else {
		outcome.HTTPStatus = resp.StatusCode
	}

	if !urlutil.SameHost(resp.Request.URL.Hostname(), f.startHost) {
		return outcome, nil
	}
	if !strings.Contains(strings.ToLower(outcome.ContentType), "text/html") {
		return outcome, nil
	}

	linkBase := *resp.Request.URL
	if outcome.Redirected {
		original, err := url.Parse(rawURL)
		if err == nil && urlutil.SameHost(original.Hostname(), f.startHost) {
			linkBase = *original
			linkBase.Path = resp.Request.URL.Path
			linkBase.RawQuery = resp.Request.URL.RawQuery
		}
	}

	links, hasForm, err := extractDirect(resp.Body, &linkBase)
	if err != nil {
		return Outcome{}, fmt.Errorf("extract links from %s: %w", finalURL, err)
	}
	outcome.Links = links
	outcome.HasForm = hasForm
	return outcome, nil
}

// extractDirect walks the HTML token stream once, collecting anchor hrefs
// (resolved against base, non-HTTP schemes and droppable hrefs discarded)
// and whether any <form> element is present.
func extractDirect(body interface{ Read([]byte) (int, error) }, base *url.URL) ([]Link, bool, error) {
	tokenizer := html.NewTokenizer(body)
	var links []Link
	hasForm := false
	var pendingText strings.Builder
	var pendingHref string
	inAnchor := false

	flush := func() {
		if pendingHref == "" {
			return
		}
		links = append(links, Link{URL: pendingHref, Text: truncateText(strings.TrimSpace(pendingText.String()))})
		pendingHref = ""
		pendingText.Reset()
	}

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			flush()
			return links, hasForm, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "form":
				hasForm = true
			case "a":
				flush()
				inAnchor = tokenType == html.StartTagToken
				for _, attr := range token.Attr {
					if attr.Key != "href" {
						continue
					}
					href := attr.Val
					if urlutil.IsDroppableHref(href) {
						continue
					}
					hrefURL, err := url.Parse(href)
					if err != nil {
						continue
					}
					resolved := base.ResolveReference(hrefURL).String()
					if !urlutil.IsHTTPScheme(resolved) {
						continue
					}
					pendingHref = resolved
				}
				if tokenType == html.SelfClosingTagToken {
					flush()
					inAnchor = false
				}
			}
		case html.TextToken:
			if inAnchor {
				pendingText.Write(tokenizer.Text())
			}
		case html.EndTagToken:
			token := tokenizer.Token()
			if token.Data == "a" {
				flush()
				inAnchor = false
			}
		}
	}
}
