package sitemap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lukemcguire/sitemapgen/sitemap"
)

func TestDiscoverFindsCommonPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0"?><urlset></urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := sitemap.Discover(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got != srv.URL+"/sitemap.xml" {
		t.Errorf("Discover() = %q, want %q", got, srv.URL+"/sitemap.xml")
	}
}

func TestDiscoverPrefersRobotsHint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/custom-sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<urlset></urlset>`))
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<urlset></urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := sitemap.Discover(context.Background(), srv.URL, []string{srv.URL + "/custom-sitemap.xml"})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got != srv.URL+"/custom-sitemap.xml" {
		t.Errorf("Discover() = %q, want the robots hint", got)
	}
}

func TestDiscoverFallsBackToRangedGET(t *testing.T) {
	// HEAD returns a misleading content-type; only a ranged GET reveals the
	// body actually starts with sitemap markers.
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/octet-stream")
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(`<?xml version="1.0"?><urlset></urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := sitemap.Discover(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got != srv.URL+"/sitemap.xml" {
		t.Errorf("Discover() = %q, want %q", got, srv.URL+"/sitemap.xml")
	}
}

func TestDiscoverReturnsEmptyWhenNothingFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	got, err := sitemap.Discover(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got != "" {
		t.Errorf("Discover() = %q, want empty", got)
	}
}
