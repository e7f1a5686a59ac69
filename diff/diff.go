// Package diff compares a crawl's 200-OK URL set against a published
// sitemap's URL set, reporting what each side is missing from the other.
package diff

import (
	"fmt"
	"sort"
	"strings"
)

// Result is the outcome of comparing a crawled URL set against a sitemap's
// URL set: Added holds URLs the crawl found that the sitemap doesn't list,
// Missing holds URLs the sitemap lists that the crawl never reached. Both
// are sorted lexicographically.
type Result struct {
	Added   []string
	Missing []string
}

// Compare computes crawled \ sitemap (Added) and sitemap \ crawled
// (Missing), given the set of URLs the crawl marked StatusOK and the set
// of URLs a loaded sitemap lists.
func Compare(crawled, sitemap map[string]struct{}) Result {
	return Result{
		Added:   setDifference(crawled, sitemap),
		Missing: setDifference(sitemap, crawled),
	}
}

func setDifference(a, b map[string]struct{}) []string {
	var out []string
	for u := range a {
		if _, ok := b[u]; !ok {
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}

// String renders a plain-text diff report for display or clipboard export.
func (r Result) String() string {
	var b strings.Builder
	fmt.Fprintln(&b, "=== SITEMAP DIFF ===")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "--- Crawled but not in sitemap (%d) ---\n", len(r.Added))
	for _, u := range r.Added {
		fmt.Fprintln(&b, u)
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "--- In sitemap but not crawled (%d) ---\n", len(r.Missing))
	for _, u := range r.Missing {
		fmt.Fprintln(&b, u)
	}
	return b.String()
}
