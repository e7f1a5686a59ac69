package crawler

import "time"

// Config holds everything a Scheduler needs to run one crawl.
type Config struct {
	StartURL       string            // crawl entry point
	MaxDepth       int               // default 10
	Concurrency    int               // default 8
	RequestTimeout time.Duration     // default 30s, per fetch
	UserAgent      string            // default "sitemapgen/1.0 (+https://github.com/lukemcguire/sitemapgen)"
	RespectRobots  bool              // default true
	Cookies        map[string]string // name -> value, seeded for the start host
	MaxRetries     int               // additional attempts beyond the first, default 2
	Render         bool              // use the headless-browser fetcher instead of the direct one
	Headless       bool              // when Render is set, run the browser headless (default true)
	ChromeExecPath string            // optional pinned Chrome binary path for RenderedFetcher
}

// DefaultConfig returns a Config with the documented defaults applied,
// leaving StartURL for the caller to fill in.
func DefaultConfig(startURL string) Config {
	return Config{
		StartURL:       startURL,
		MaxDepth:       10,
		Concurrency:    8,
		RequestTimeout: 30 * time.Second,
		UserAgent:      "sitemapgen/1.0 (+https://github.com/lukemcguire/sitemapgen)",
		RespectRobots:  true,
		MaxRetries:     2,
		Headless:       true,
	}
}

// job is one unit of BFS work: a canonical URL discovered at a given depth
// with the URL that first led to it.
type job struct {
	url    string
	depth  int
	parent string
}
