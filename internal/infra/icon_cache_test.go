package infra

import (
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
)

func iconServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	src := imaging.New(200, 100, color.NRGBA{R: 255, A: 255})
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/icon.png" {
			http.NotFound(w, r)
			return
		}
		if err := imaging.Encode(w, src, imaging.PNG); err != nil {
			t.Errorf("encode failed: %v", err)
		}
	}))
}

func TestIconCache_FetchResizesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := iconServer(t, &hits)
	defer srv.Close()

	cache, err := NewIconCache(t.TempDir(), 32)
	if err != nil {
		t.Fatalf("NewIconCache failed: %v", err)
	}

	path, err := cache.Fetch(context.Background(), "Seller-Badge", srv.URL+"/icon.png")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if path != cache.Path("Seller-Badge") {
		t.Errorf("Expected path %s, got %s", cache.Path("Seller-Badge"), path)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if b := img.Bounds(); b != image.Rect(0, 0, 32, 32) {
		t.Errorf("Expected 32x32 icon, got %v", b)
	}

	// Second fetch is a cache hit
	if _, err := cache.Fetch(context.Background(), "Seller-Badge", srv.URL+"/icon.png"); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 download, got %d", hits.Load())
	}
}

func TestIconCache_Errors(t *testing.T) {
	var hits atomic.Int32
	srv := iconServer(t, &hits)
	defer srv.Close()

	cache, err := NewIconCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewIconCache failed: %v", err)
	}

	if _, err := cache.Fetch(context.Background(), "../..", srv.URL+"/icon.png"); err == nil {
		t.Error("Expected error for unsafe name")
	}
	if _, err := cache.Fetch(context.Background(), "missing", srv.URL+"/missing.png"); err == nil {
		t.Error("Expected error for 404")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"badge":        "badge",
		"../etc/pass":  "etcpass",
		"seller_badge": "seller_badge",
		"a b-c":        "ab-c",
	}
	for in, want := range tests {
		if got := sanitizeName(in); got != want {
			t.Errorf("sanitizeName(%q): expected %q, got %q", in, want, got)
		}
	}
}
