package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type routeRecorder struct {
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (r *routeRecorder) RecordHTTPRequest(route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
	r.codes = append(r.codes, status)
}

func TestNoCacheMiddleware(t *testing.T) {
	handler := NoCacheMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	if got := w.Header().Get("Cache-Control"); got != "no-cache, no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestInstrumentRoute(t *testing.T) {
	rec := &routeRecorder{}
	handler := InstrumentRoute(rec, "vod")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/vod/abc", nil))

	if len(rec.routes) != 1 || rec.routes[0] != "vod" || rec.codes[0] != http.StatusBadRequest {
		t.Errorf("recorded %v %v", rec.routes, rec.codes)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/truestat/hunter2?token=abc", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["path"] != "/truestat/***" {
		t.Errorf("path = %v", entry["path"])
	}
	if strings.Contains(buf.String(), "hunter2") || strings.Contains(buf.String(), "token=abc") {
		t.Errorf("log line leaked secret: %s", buf.String())
	}
}

func TestCompressionMiddleware(t *testing.T) {
	compress, err := CompressionMiddleware()
	if err != nil {
		t.Fatalf("CompressionMiddleware() error = %v", err)
	}

	manifest := "#EXTM3U\n" + strings.Repeat("#EXT-X-MEDIA:TYPE=VIDEO,GROUP-ID=\"chunked\"\n", 50)
	handler := compress(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		_, _ = io.WriteString(w, manifest)
	}))

	req := httptest.NewRequest(http.MethodGet, "/live/x", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}

	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	body, _ := io.ReadAll(zr)
	if string(body) != manifest {
		t.Error("decompressed body does not match")
	}
}
