package urlutil

import (
	"net/url"
	"strings"
)

// IsInternal reports whether targetURL's host exactly matches startHost
// (case-insensitive). Unlike a same-site heuristic, subdomains are not
// considered internal: the spec requires an exact host match.
func IsInternal(targetURL string, startHost string) bool {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	return SameHost(parsed.Hostname(), startHost)
}

// IsHTTPScheme returns true if the URL has an http or https scheme.
// Returns false for empty strings, non-HTTP schemes, or unparseable URLs.
func IsHTTPScheme(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}

// skipExtensions is the fixed set of path suffixes that are never fetched.
// Matching is case-insensitive against the path only (query ignored).
var skipExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico", ".bmp",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".zip", ".rar", ".gz", ".tar", ".7z",
	".mp3", ".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm",
	".css", ".js", ".json", ".xml", ".woff", ".woff2", ".ttf", ".eot",
	".exe", ".dmg", ".apk", ".msi",
}

// HasSkippableExtension reports whether rawURL's path ends in one of the
// fixed non-HTML extensions that are never fetched and never counted.
func HasSkippableExtension(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// droppableHrefPrefixes lists anchor href prefixes that are never
// resolved or followed: in-page anchors and non-navigable pseudo-schemes.
var droppableHrefPrefixes = []string{"#", "javascript:", "mailto:", "tel:", "data:"}

// IsDroppableHref reports whether an anchor's raw href attribute should
// be discarded before any normalization is attempted.
func IsDroppableHref(href string) bool {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range droppableHrefPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
