package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lukemcguire/sitemapgen/result"
)

// MaxURLsPerSitemap is the standard per-file cap; crossing it splits the
// output into chunked part files plus a sitemap index.
const MaxURLsPerSitemap = 50_000

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Write renders results into one or more sitemap XML files rooted at
// outputPath (e.g. "sitemap.xml" becomes "sitemap-1.xml", "sitemap-2.xml",
// ... plus a "sitemap.xml" index when chunked). Only results that are
// StatusOK and HTML (or report no content type at all) are included; if
// none qualify, nothing is written and the returned file list is empty.
// Results are written in ascending URL order for stable, diffable output.
func Write(results []result.CrawlResult, outputPath string) ([]string, error) {
	urls := filterSitemapable(results)
	if len(urls) == 0 {
		return nil, nil
	}

	if len(urls) <= MaxURLsPerSitemap {
		if err := writeURLSet(urls, outputPath); err != nil {
			return nil, err
		}
		return []string{outputPath}, nil
	}
	return writeIndex(urls, outputPath)
}

func filterSitemapable(results []result.CrawlResult) []result.CrawlResult {
	var out []result.CrawlResult
	for _, r := range results {
		if r.Status != result.StatusOK {
			continue
		}
		ct := strings.ToLower(r.ContentType)
		if ct != "" && !strings.Contains(ct, "text/html") {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

func writeURLSet(urls []result.CrawlResult, path string) error {
	type xmlURL struct {
		Loc      string `xml:"loc"`
		LastMod  string `xml:"lastmod,omitempty"`
		Priority string `xml:"priority"`
	}
	type urlset struct {
		XMLName xml.Name `xml:"urlset"`
		Xmlns   string   `xml:"xmlns,attr"`
		URLs    []xmlURL `xml:"url"`
	}

	doc := urlset{Xmlns: sitemapNS}
	for _, r := range urls {
		doc.URLs = append(doc.URLs, xmlURL{
			Loc:      r.URL,
			LastMod:  r.LastModified,
			Priority: estimatePriority(r.Depth),
		})
	}
	return writePrettyXML(doc, path)
}

func writeIndex(urls []result.CrawlResult, path string) ([]string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	var written []string
	for i := 0; i < len(urls); i += MaxURLsPerSitemap {
		end := min(i+MaxURLsPerSitemap, len(urls))
		partPath := fmt.Sprintf("%s-%d%s", base, len(written)+1, ext)
		if err := writeURLSet(urls[i:end], partPath); err != nil {
			return nil, err
		}
		written = append(written, partPath)
	}

	type xmlSitemap struct {
		Loc string `xml:"loc"`
	}
	type sitemapindex struct {
		XMLName  xml.Name     `xml:"sitemapindex"`
		Xmlns    string       `xml:"xmlns,attr"`
		Sitemaps []xmlSitemap `xml:"sitemap"`
	}
	idx := sitemapindex{Xmlns: sitemapNS}
	for _, p := range written {
		idx.Sitemaps = append(idx.Sitemaps, xmlSitemap{Loc: filepath.Base(p)})
	}
	if err := writePrettyXML(idx, path); err != nil {
		return nil, err
	}

	return append([]string{path}, written...), nil
}

// estimatePriority maps crawl depth to a sitemap priority: 1.0 at depth 0,
// decreasing by 0.2 per level, floored at 0.1.
func estimatePriority(depth int) string {
	priority := 1.0 - float64(depth)*0.2
	if priority < 0.1 {
		priority = 0.1
	}
	return fmt.Sprintf("%.1f", priority)
}

// writePrettyXML marshals doc with a leading XML declaration and two-space
// indentation. encoding/xml.MarshalIndent already produces exactly this
// shape for these flat, single-level element documents, so no separate
// pretty-printing pass is needed the way the Python original needed
// xml.dom.minidom.
func writePrettyXML(doc any, path string) error {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	encoded, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sitemap XML: %w", err)
	}
	buf.Write(encoded)
	buf.WriteByte('\n')

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write sitemap file %s: %w", path, err)
	}
	return nil
}
