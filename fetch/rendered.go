package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/lukemcguire/sitemapgen/urlutil"
)

// linksJS collects every rendered anchor's absolute href (the DOM resolves
// relative hrefs for us) and its visible text.
const linksJS = `
Array.from(document.querySelectorAll('a[href]')).map(function(a) {
	return {href: a.href, text: (a.textContent || '').trim()};
});
`

// RenderedFetcher drives a headless Chrome instance through chromedp,
// satisfying the same Fetcher contract as DirectFetcher for pages whose
// content depends on client-side rendering. Because the Chrome DevTools
// navigation API does not expose the status code of an intermediate
// redirect hop, any redirect it followed is reported as 301.
type RenderedFetcher struct {
	startHost     string
	allocatorOpts []chromedp.ExecAllocatorOption
}

// NewRenderedFetcher builds a RenderedFetcher scoped to startURL's host.
// execPath, when non-empty, pins the Chrome binary to use (needed when
// running from a frozen executable bundle that ships its own browser).
func NewRenderedFetcher(startURL, userAgent string, headless bool, execPath string) (*RenderedFetcher, error) {
	parsed, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parse start URL: %w", err)
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.UserAgent(userAgent))
	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	return &RenderedFetcher{
		startHost:     parsed.Hostname(),
		allocatorOpts: opts,
	}, nil
}

type renderedLink struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Fetch implements Fetcher.
func (f *RenderedFetcher) Fetch(ctx context.Context, rawURL string) (Outcome, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOpts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var finalURL string
	var contentType string
	var rawLinks []renderedLink
	var hasForm bool

	err := chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.Evaluate(`document.contentType || "text/html"`, &contentType),
		chromedp.Evaluate(`document.forms.length > 0`, &hasForm),
		chromedp.Evaluate(linksJS, &rawLinks),
	)
	if err != nil {
		return Outcome{}, fmt.Errorf("render %s: %w", rawURL, err)
	}

	outcome := Outcome{
		ContentType: contentType,
		FinalURL:    finalURL,
	}
	if finalURL != "" && finalURL != rawURL {
		outcome.Redirected = true
		outcome.HTTPStatus = 301
	} else {
		outcome.HTTPStatus = 200
	}

	parsedFinal, err := url.Parse(finalURL)
	if err != nil || !urlutil.SameHost(parsedFinal.Hostname(), f.startHost) {
		return outcome, nil
	}
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return outcome, nil
	}

	outcome.HasForm = hasForm
	for _, link := range rawLinks {
		if !strings.HasPrefix(link.Href, "http") {
			continue
		}
		outcome.Links = append(outcome.Links, Link{
			URL:  link.Href,
			Text: truncateText(strings.TrimSpace(link.Text)),
		})
	}
	return outcome, nil
}
