package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/lukemcguire/sitemapgen/fetch"
)

// fetchWithRetry calls f.Fetch, retrying up to maxRetries additional times
// on any transport-level failure. Backoff is linear: 2*attempt seconds,
// 1-indexed, so the first retry waits 2s and the second waits 4s. A
// successful fetch (even one carrying an HTTP error status) short-circuits
// the loop immediately, since HTTP errors are not retried.
func fetchWithRetry(ctx context.Context, f fetch.Fetcher, rawURL string, maxRetries int) (fetch.Outcome, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(2*attempt) * time.Second
			select {
			case <-ctx.Done():
				return fetch.Outcome{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		outcome, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
	}

	return fetch.Outcome{}, fmt.Errorf("fetch %s: %w (after %d attempts)", rawURL, lastErr, maxRetries+1)
}
