package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{100, 100, 100, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestFetchImage(t *testing.T) {
	payload := pngBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5 * time.Second)
	img, err := fetcher.FetchImage(context.Background(), server.URL+"/face.png")
	if err != nil {
		t.Fatalf("Expected fetch to succeed, got %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Errorf("Unexpected image dimensions %v", img.Bounds())
	}
}

func TestFetchImage_RetriesServerErrors(t *testing.T) {
	payload := pngBytes(t)
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(30 * time.Second)
	if _, err := fetcher.FetchImage(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected retry to recover, got %v", err)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestFetchImage_NoRetryOn404(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5 * time.Second)
	if _, err := fetcher.FetchImage(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error for 404")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("Expected a single attempt for a 4xx status, got %d", attempts)
	}
}

func TestFetchImage_NotAnImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5 * time.Second)
	if _, err := fetcher.FetchImage(context.Background(), server.URL); err == nil {
		t.Fatal("Expected decode error for non-image payload")
	}
}
