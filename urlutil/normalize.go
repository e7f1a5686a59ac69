// Package urlutil canonicalizes URLs and classifies them as internal or
// external to a crawl's start host, per the canonical-form rules the rest
// of the crawler depends on for deduplication.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// safePathBytes is the fixed safe-set for path re-encoding: unreserved
// characters plus the sub-delims and gen-delims that are safe to leave
// literal in a path segment.
const safePathBytes = "/:@!$&'*+,;=-._~"

// safeQueryBytes extends safePathBytes with the characters a query string
// may carry unescaped (? and = separate query components, not the path).
const safeQueryBytes = safePathBytes + "?="

// Canonicalize resolves ref against base (if ref is relative), strips the
// fragment, and rewrites scheme/host/path/query into the canonical form
// used for deduplication: lower-cased scheme and host, percent-decoded
// then re-encoded path and query against a fixed safe-set, empty path
// promoted to "/".
func Canonicalize(ref string, base *url.URL) (string, error) {
	if ref == "" {
		return "", errors.New("cannot normalize empty URL")
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse URL %q: %w", ref, err)
	}

	resolved := parsed
	if base != nil {
		resolved = base.ResolveReference(parsed)
	}

	if resolved.Scheme == "" || resolved.Host == "" {
		return "", errors.New("URL must have both scheme and host")
	}

	resolved.Scheme = strings.ToLower(resolved.Scheme)
	resolved.Host = strings.ToLower(resolved.Host)
	resolved.Fragment = ""
	resolved.RawFragment = ""

	if resolved.Path == "" {
		resolved.Path = "/"
	}
	// Path keeps the decoded form; RawPath carries the re-encoded form that
	// String() emits, so existing escapes are not escaped a second time.
	resolved.RawPath = reencode(resolved.Path, safePathBytes)

	if resolved.RawQuery != "" {
		resolved.RawQuery = reencode(decodeQuery(resolved.RawQuery), safeQueryBytes)
	}

	return resolved.String(), nil
}

// decodeQuery percent-decodes a raw query string for re-encoding. Unlike
// url.QueryUnescape it does not turn "+" into a space, since we re-encode
// the whole query as a path-like safe-set rather than as form data.
func decodeQuery(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '%' && i+2 < len(raw) {
			if hi, ok := hexVal(raw[i+1]); ok {
				if lo, ok := hexVal(raw[i+2]); ok {
					b.WriteByte(hi<<4 | lo)
					i += 2
					continue
				}
			}
		}
		b.WriteByte(raw[i])
	}
	return b.String()
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// reencode re-encodes every byte of s that is not unreserved and not in
// safe, against the fixed safe-set used for canonical URLs.
func reencode(s string, safe string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedOrSafe(c, safe) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreservedOrSafe(c byte, safe string) bool {
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
		return true
	}
	return strings.IndexByte(safe, c) >= 0
}

// SameHost reports whether two hosts are exactly equal, case-insensitively.
// The spec defines "internal" as an exact host match; subdomains are
// treated as external, unlike a looser same-site heuristic.
func SameHost(a, b string) bool {
	return strings.EqualFold(a, b)
}

// PromoteScheme rewrites candidate's scheme to https when candidate is
// plain http on the same host as a start URL that is https. This lets
// "http://h/a" and "https://h/a" dedupe to the same canonical URL when
// the crawl started on https.
func PromoteScheme(candidate string, startScheme, startHost string) (string, error) {
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("parse URL %q: %w", candidate, err)
	}
	if startScheme == "https" && strings.EqualFold(parsed.Scheme, "http") && SameHost(parsed.Host, startHost) {
		parsed.Scheme = "https"
	}
	return parsed.String(), nil
}
