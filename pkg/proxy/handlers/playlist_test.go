package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/luminous/pkg/gateway"
	"mercator-hq/luminous/pkg/gateway/allowlist"
	"mercator-hq/luminous/pkg/proxy/types"
	"mercator-hq/luminous/pkg/transport"
)

const testManifest = "#EXTM3U\n" +
	`#EXT-X-TWITCH-INFO:USER-IP="198.51.100.7",USER-COUNTRY="DE"` + "\n" +
	"https://video.invalid/chunked.m3u8\n"

// platform is a synthetic upstream serving the token and manifest endpoints.
type platform struct {
	server *httptest.Server
	calls  atomic.Int32

	mu             sync.Mutex
	manifestStatus int
	manifestURL    *url.URL
}

func newPlatform(t *testing.T) *platform {
	t.Helper()
	p := &platform{manifestStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /gql", func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		io.WriteString(w, `{"data":{
			"streamPlaybackAccessToken":{"value":"TOKENVALUE","signature":"SIGVALUE","__typename":"PlaybackAccessToken"},
			"videoPlaybackAccessToken":{"value":"TOKENVALUE","signature":"SIGVALUE","__typename":"PlaybackAccessToken"}
		}}`)
	})
	manifest := func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		p.mu.Lock()
		p.manifestURL = r.URL
		status := p.manifestStatus
		p.mu.Unlock()

		if status != http.StatusOK {
			http.Error(w, "forbidden", status)
			return
		}
		io.WriteString(w, testManifest)
	}
	mux.HandleFunc("GET /api/channel/hls/", manifest)
	mux.HandleFunc("GET /vod/", manifest)

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func newTestMux(t *testing.T, p *platform, compat bool) *http.ServeMux {
	t.Helper()

	client, err := transport.New(transport.Config{
		Name:           "test",
		ConnectTimeout: time.Second,
		TotalTimeout:   2 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	gw := gateway.New(gateway.Config{
		ClientID:         "client-id",
		GQLURL:           p.server.URL + "/gql",
		UsherURL:         p.server.URL,
		DefaultUserAgent: "default-ua",
	}, client, allowlist.Default(), nil)

	h := NewPlaylistHandler(gw, compat)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /live/{channel}", h.Live)
	mux.HandleFunc("GET /vod/{id}", h.VOD)
	mux.HandleFunc("GET /playlist/{channel}", h.Compat)
	return mux
}

func TestPlaylistHandler_Live(t *testing.T) {
	p := newPlatform(t)
	mux := newTestMux(t, p, false)

	req := httptest.NewRequest(http.MethodGet, "/live/SomeChannel?player_version=1.2&evil_tracker=x", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != ManifestContentType {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Body.String() != testManifest {
		t.Errorf("body = %q", w.Body.String())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.manifestURL.Path != "/api/channel/hls/somechannel.m3u8" {
		t.Errorf("manifest path = %q", p.manifestURL.Path)
	}
	query := p.manifestURL.Query()
	if query.Get("player_version") != "1.2" {
		t.Errorf("player_version = %q, want 1.2", query.Get("player_version"))
	}
	if query.Has("evil_tracker") {
		t.Error("evil_tracker should not be forwarded")
	}
	if query.Get("token") != "TOKENVALUE" || query.Get("sig") != "SIGVALUE" {
		t.Errorf("token params missing: %v", query)
	}
}

func TestPlaylistHandler_InvalidVODMakesNoUpstreamCall(t *testing.T) {
	p := newPlatform(t)
	mux := newTestMux(t, p, false)

	for _, id := range []string{"abc", "-1", "12a", "1.5"} {
		t.Run(id, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vod/"+id, nil))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}

			var body types.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if body.Code != http.StatusBadRequest {
				t.Errorf("body code = %d", body.Code)
			}
		})
	}

	if got := p.calls.Load(); got != 0 {
		t.Errorf("upstream received %d calls, want 0", got)
	}
}

func TestPlaylistHandler_VOD(t *testing.T) {
	p := newPlatform(t)
	mux := newTestMux(t, p, false)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vod/123456", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.manifestURL.Path != "/vod/123456.m3u8" {
		t.Errorf("manifest path = %q", p.manifestURL.Path)
	}
}

func TestPlaylistHandler_UpstreamErrorIsRedacted(t *testing.T) {
	p := newPlatform(t)
	p.manifestStatus = http.StatusForbidden
	mux := newTestMux(t, p, false)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live/somechannel", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want upstream 403 preserved", w.Code)
	}

	body := w.Body.String()
	for _, secret := range []string{"TOKENVALUE", "SIGVALUE", "token=", "sig="} {
		if strings.Contains(body, secret) {
			t.Errorf("error body leaks %q: %s", secret, body)
		}
	}
}

func TestPlaylistHandler_Compat(t *testing.T) {
	p := newPlatform(t)
	mux := newTestMux(t, p, true)

	encoded := url.PathEscape("somechannel.m3u8?player_version=1.3&evil_tracker=x")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/playlist/"+encoded, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.manifestURL.Path != "/api/channel/hls/somechannel.m3u8" {
		t.Errorf("manifest path = %q", p.manifestURL.Path)
	}
	if got := p.manifestURL.Query().Get("player_version"); got != "1.3" {
		t.Errorf("player_version = %q, want 1.3", got)
	}
	if p.manifestURL.Query().Has("evil_tracker") {
		t.Error("evil_tracker should not be forwarded")
	}
}

func TestSplitCompatPath(t *testing.T) {
	tests := []struct {
		name       string
		segment    string
		params     url.Values
		wantID     string
		wantParams url.Values
		wantErr    bool
	}{
		{
			name:       "no marker",
			segment:    "somechannel",
			params:     url.Values{"a": {"1"}},
			wantID:     "somechannel",
			wantParams: url.Values{"a": {"1"}},
		},
		{
			name:       "marker without query",
			segment:    "somechannel.m3u8",
			wantID:     "somechannel",
			wantParams: url.Values{},
		},
		{
			name:       "encoded query",
			segment:    "somechannel.m3u8?allow_source=true&fast_bread=true",
			wantID:     "somechannel",
			wantParams: url.Values{"allow_source": {"true"}, "fast_bread": {"true"}},
		},
		{
			name:       "path query wins over real query",
			segment:    "42.m3u8?cdm=wv",
			params:     url.Values{"cdm": {"other"}, "p": {"1"}},
			wantID:     "42",
			wantParams: url.Values{"cdm": {"wv"}, "p": {"1"}},
		},
		{
			name:    "malformed query",
			segment: "x.m3u8?a=%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, params, err := SplitCompatPath(tt.segment, tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitCompatPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
			if params.Encode() != tt.wantParams.Encode() {
				t.Errorf("params = %v, want %v", params, tt.wantParams)
			}
		})
	}
}
