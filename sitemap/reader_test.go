package sitemap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lukemcguire/sitemapgen/sitemap"
)

func TestLoadSimpleURLSet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://a.test/</loc></url>
  <url><loc>https://a.test/about</loc></url>
</urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	urls, err := sitemap.Load(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2: %v", len(urls), urls)
	}
	if _, ok := urls["https://a.test/"]; !ok {
		t.Error("missing https://a.test/")
	}
	if _, ok := urls["https://a.test/about"]; !ok {
		t.Error("missing https://a.test/about")
	}
}

func TestLoadRecursesThroughIndex(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap-1.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>https://a.test/1</loc></url></urlset>`))
	})
	mux.HandleFunc("/sitemap-2.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>https://a.test/2</loc></url></urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// The index body references absolute part URLs, so it can only be
	// registered once the server's own origin is known.
	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>` + srv.URL + `/sitemap-1.xml</loc></sitemap>
  <sitemap><loc>` + srv.URL + `/sitemap-2.xml</loc></sitemap>
</sitemapindex>`))
	})

	urls, err := sitemap.Load(context.Background(), srv.URL+"/sitemap_index.xml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2: %v", len(urls), urls)
	}
}

func TestLoadAbortsOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	urls, err := sitemap.Load(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("got %d urls, want 0 on 404", len(urls))
	}
}

func TestLoadAbortsOnMalformedXML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not xml at all`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	urls, err := sitemap.Load(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("got %d urls, want 0 on malformed XML", len(urls))
	}
}
