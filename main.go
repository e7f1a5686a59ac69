// Package main provides the sitemapgen CLI entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lukemcguire/sitemapgen/crawler"
	"github.com/lukemcguire/sitemapgen/report"
	"github.com/lukemcguire/sitemapgen/result"
	"github.com/lukemcguire/sitemapgen/sitemap"
	"github.com/lukemcguire/sitemapgen/tui"
)

// cliFlags holds parsed command-line flags.
type cliFlags struct {
	output       string
	maxDepth     int
	concurrency  int
	timeout      int
	render       bool
	noHeadless   bool
	ignoreRobots bool
	userAgent    string
	cookies      cookieFlags
	errorReport  string
	formsExport  string
}

// cookieFlags accumulates repeated --cookie NAME=VALUE flags.
type cookieFlags []string

func (c *cookieFlags) String() string { return strings.Join(*c, ",") }
func (c *cookieFlags) Set(v string) error {
	*c = append(*c, v)
	return nil
}

// parseFlags parses command-line flags and returns the parsed values.
func parseFlags() *cliFlags {
	opts := &cliFlags{}
	flag.StringVar(&opts.output, "output", "sitemap.xml", "path to write the generated sitemap")
	flag.IntVar(&opts.maxDepth, "max-depth", 10, "maximum crawl depth")
	flag.IntVar(&opts.concurrency, "concurrency", 8, "number of concurrent fetch workers")
	flag.IntVar(&opts.timeout, "timeout", 30, "per-request timeout in seconds")
	flag.BoolVar(&opts.render, "render", false, "use a headless browser fetcher instead of direct HTTP")
	flag.BoolVar(&opts.noHeadless, "no-headless", false, "show the browser window when --render is set")
	flag.BoolVar(&opts.ignoreRobots, "ignore-robots", false, "do not respect robots.txt")
	flag.StringVar(&opts.userAgent, "user-agent", "sitemapgen/1.0 (+https://github.com/lukemcguire/sitemapgen)", "user agent string")
	flag.Var(&opts.cookies, "cookie", "cookie as NAME=VALUE, repeatable")
	flag.StringVar(&opts.errorReport, "error-report", "", "path to write a JSON dead-link report (optional)")
	flag.StringVar(&opts.formsExport, "forms-export", "", "path to write a JSON forms export (optional)")
	flag.Parse()
	return opts
}

// parseCookies converts NAME=VALUE flag values into a map. An entry
// without "=" is a malformed flag and rejected.
func parseCookies(raw []string) (map[string]string, error) {
	cookies := make(map[string]string, len(raw))
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --cookie %q, want NAME=VALUE", entry)
		}
		cookies[name] = value
	}
	return cookies, nil
}

// buildCrawlerConfig creates a crawler.Config from flags and the target URL.
func buildCrawlerConfig(opts *cliFlags, rawURL string, cookies map[string]string, execPath string) crawler.Config {
	cfg := crawler.DefaultConfig(rawURL)
	cfg.MaxDepth = opts.maxDepth
	cfg.Concurrency = opts.concurrency
	cfg.RequestTimeout = time.Duration(opts.timeout) * time.Second
	cfg.UserAgent = opts.userAgent
	cfg.RespectRobots = !opts.ignoreRobots
	cfg.Cookies = cookies
	cfg.Render = opts.render
	cfg.Headless = !opts.noHeadless
	cfg.ChromeExecPath = execPath
	return cfg
}

// frozenChromeExecPath returns the path to a bundled Chrome binary when
// running as a frozen executable shipped alongside a "browsers/" directory,
// or "" otherwise. chromedp has no env-var-based browser discovery the way
// a Playwright-based tool would, so the closest idiomatic equivalent is
// pinning chromedp.ExecPath explicitly via crawler.Config.ChromeExecPath.
func frozenChromeExecPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	browsersDir := filepath.Join(filepath.Dir(exe), "browsers")
	info, err := os.Stat(browsersDir)
	if err != nil || !info.IsDir() {
		return ""
	}
	entries, err := os.ReadDir(browsersDir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			return filepath.Join(browsersDir, entry.Name())
		}
	}
	return ""
}

// runTUI creates and runs the TUI, returning the final model.
func runTUI(ctx context.Context, cancel context.CancelFunc, cfg crawler.Config) (tui.Model, error) {
	events := make(chan crawler.CrawlEvent, 100)
	logs := make(chan crawler.LogEvent, 100)

	sched, err := crawler.New(cfg, events, logs)
	if err != nil {
		return tui.Model{}, fmt.Errorf("create crawler: %w", err)
	}

	tuiModel := tui.NewModel(ctx, cancel, sched, events, logs)
	program := tea.NewProgram(tuiModel)

	finalModel, err := program.Run()
	if err != nil {
		return tui.Model{}, fmt.Errorf("run tui: %w", err)
	}

	return finalModel.(tui.Model), nil
}

// writeSideReports writes the optional error/forms JSON exports requested
// by flags, alongside the always-attempted sitemap write.
func writeSideReports(opts *cliFlags, model tui.Model) error {
	results := model.Results()
	stats := model.Stats()

	if opts.errorReport != "" {
		rpt := report.BuildErrorReport(results, stats, model.StartURL(), time.Now())
		data, err := report.WriteErrorReportJSON(rpt)
		if err != nil {
			return fmt.Errorf("build error report: %w", err)
		}
		if err := os.WriteFile(opts.errorReport, data, 0o644); err != nil {
			return fmt.Errorf("write error report: %w", err)
		}
	}

	if opts.formsExport != "" {
		export := report.BuildFormsExport(results)
		data, err := report.WriteFormsExportJSON(export)
		if err != nil {
			return fmt.Errorf("build forms export: %w", err)
		}
		if err := os.WriteFile(opts.formsExport, data, 0o644); err != nil {
			return fmt.Errorf("write forms export: %w", err)
		}
	}

	return nil
}

func main() {
	opts := parseFlags()

	cookies, err := parseCookies(opts.cookies)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sitemapgen [flags] <url>")
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	rawURL := flag.Arg(0)
	parsedURL, err := url.Parse(rawURL)
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		fmt.Fprintf(os.Stderr, "Invalid URL: %s\nURL must start with http:// or https://\n", rawURL)
		os.Exit(1)
	}

	var execPath string
	if opts.render {
		execPath = frozenChromeExecPath()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := buildCrawlerConfig(opts, rawURL, cookies, execPath)

	finalTUIModel, err := runTUI(ctx, cancel, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result.PrintSummary(os.Stdout, finalTUIModel.Stats())

	sitemapFiles, err := sitemap.Write(finalTUIModel.Results(), opts.output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing sitemap: %v\n", err)
		os.Exit(1)
	}
	if len(sitemapFiles) > 0 {
		fmt.Printf("Wrote %d sitemap file(s)\n", len(sitemapFiles))
	}

	if err := writeSideReports(opts, finalTUIModel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
