package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeBroker serves the init, tunnel-list and countries endpoints.
type fakeBroker struct {
	initBody    string
	tunnelsBody string
	initCalls   int32
	tunnelCalls int32
	lastTunnels *http.Request
	lastInit    *http.Request
	initForm    map[string]string
}

func (f *fakeBroker) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /client_cgi/background_init", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.initCalls, 1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad init form: %v", err)
		}
		f.lastInit = r
		f.initForm = map[string]string{"login": r.PostForm.Get("login"), "ver": r.PostForm.Get("ver")}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(f.initBody))
	})
	mux.HandleFunc("GET /client_cgi/zgettunnels", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tunnelCalls, 1)
		f.lastTunnels = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(f.tunnelsBody))
	})
	mux.HandleFunc("GET /client_cgi/vpn_countries.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("browser") != "firefox" {
			http.Error(w, "missing browser header", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode([]string{"ru", "uk", "kz"})
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeBroker, proxyType ProxyType) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(f.handler(t))
	client := NewClient(Config{
		BaseURL:    server.URL + "/client_cgi/",
		Region:     "ru",
		ProxyType:  proxyType,
		Limit:      3,
		ExtVersion: "1.186.727",
		UserAgent:  "test-agent",
	}, &http.Client{Timeout: 5 * time.Second})
	return client, server.Close
}

const okInit = `{"ver":"1.186.727","key":123456789,"country":"NL"}`

func TestNegotiate_HostnameUsesHTTPS(t *testing.T) {
	f := &fakeBroker{
		initBody:    okInit,
		tunnelsBody: `{"agent_key":"s3cret","ip_list":{"zagent1.example":"10.0.0.1","zagent2.example":"10.0.0.2"},"port":{"direct":22222,"hola":22223,"peer":22224,"trial":22225,"trial_peer":22226}}`,
	}
	client, done := newTestClient(t, f, ProxyDirect)
	defer done()
	client.pick = func(n int) int { return n - 1 }

	id := uuid.MustParse("3F2504E0-4F89-11D3-9A0C-0305E82C3301")
	cred, used, err := client.Negotiate(context.Background(), &id)
	if err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}

	if used != id {
		t.Errorf("expected supplied identity to be reused, got %v", used)
	}
	if got := cred.Endpoint.String(); got != "https://zagent2.example:22222" {
		t.Errorf("unexpected endpoint %q", got)
	}
	if cred.Login != "user-uuid-3f2504e04f8911d39a0c0305e82c3301" {
		t.Errorf("unexpected login %q", cred.Login)
	}
	if cred.Password != "s3cret" {
		t.Errorf("unexpected password %q", cred.Password)
	}
	if cred.Country != "NL" {
		t.Errorf("unexpected country %q", cred.Country)
	}

	proxyURL := cred.ProxyURL()
	if pw, _ := proxyURL.User.Password(); pw != "s3cret" || proxyURL.User.Username() != cred.Login {
		t.Errorf("proxy url missing credentials: %v", proxyURL.Redacted())
	}
	if cred.Endpoint.User != nil {
		t.Error("ProxyURL must not mutate the endpoint")
	}

	q := f.lastTunnels.URL.Query()
	checks := map[string]string{
		"country":     "ru",
		"limit":       "3",
		"ext_ver":     "1.186.727",
		"browser":     "firefox",
		"product":     "www",
		"uuid":        "3f2504e04f8911d39a0c0305e82c3301",
		"session_key": "123456789",
		"is_premium":  "0",
	}
	for key, want := range checks {
		if got := q.Get(key); got != want {
			t.Errorf("tunnel param %s = %q, want %q", key, got, want)
		}
	}
	if q.Get("ping_id") == "" {
		t.Error("ping_id missing")
	}
	if f.lastTunnels.Header.Get("User-Agent") != "test-agent" {
		t.Errorf("user agent not sent")
	}

	if f.initForm["login"] != "1" || f.initForm["ver"] != "1.186.727" {
		t.Errorf("unexpected init form %v", f.initForm)
	}
	if f.lastInit.URL.Query().Get("uuid") != "3f2504e04f8911d39a0c0305e82c3301" {
		t.Errorf("init uuid param = %q", f.lastInit.URL.Query().Get("uuid"))
	}
}

func TestNegotiate_IPOnlyUsesHTTP(t *testing.T) {
	f := &fakeBroker{
		initBody:    okInit,
		tunnelsBody: `{"agent_key":"k","ip_list":{"":"1.2.3.4"},"port":{"direct":1234,"hola":1}}`,
	}
	client, done := newTestClient(t, f, ProxyDirect)
	defer done()

	cred, _, err := client.Negotiate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}

	if cred.Endpoint.Scheme != "http" {
		t.Errorf("expected http scheme, got %q", cred.Endpoint.Scheme)
	}
	if cred.Endpoint.Host != "1.2.3.4:1234" {
		t.Errorf("expected 1.2.3.4:1234, got %q", cred.Endpoint.Host)
	}
}

func TestNegotiate_FreshIdentity(t *testing.T) {
	f := &fakeBroker{
		initBody:    okInit,
		tunnelsBody: `{"agent_key":"k","ip_list":{"h":"1.1.1.1"},"port":{"direct":1}}`,
	}
	client, done := newTestClient(t, f, ProxyDirect)
	defer done()

	cred, id, err := client.Negotiate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected a generated identity")
	}
	if cred.Login != LoginFor(id) {
		t.Errorf("login %q does not match identity %v", cred.Login, id)
	}
}

func TestNegotiate_LumProxyType(t *testing.T) {
	f := &fakeBroker{
		initBody:    okInit,
		tunnelsBody: `{"agent_key":"k","ip_list":{"h.example":"1.1.1.1"},"port":{"direct":1,"hola":4444}}`,
	}
	client, done := newTestClient(t, f, ProxyLum)
	defer done()
	client.cfg.Region = "RU"

	cred, _, err := client.Negotiate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}
	if got := f.lastTunnels.URL.Query().Get("country"); got != "ru.pool_lum_ru_shared" {
		t.Errorf("unexpected lum region param %q", got)
	}
	if cred.Endpoint.Port() != "4444" {
		t.Errorf("expected hola port, got %q", cred.Endpoint.Port())
	}
}

func TestNegotiate_Failures(t *testing.T) {
	tests := []struct {
		name            string
		initBody        string
		tunnelsBody     string
		wantBlocked     bool
		wantPermanent   bool
		wantNoTunnels   bool
		wantTunnelCalls int32
	}{
		{
			name:            "blocked",
			initBody:        `{"blocked":true,"country":"US"}`,
			wantBlocked:     true,
			wantTunnelCalls: 0,
		},
		{
			name:            "blocked permanently",
			initBody:        `{"blocked":true,"permanent":true}`,
			wantBlocked:     true,
			wantPermanent:   true,
			wantTunnelCalls: 0,
		},
		{
			name:            "success flagged permanent",
			initBody:        `{"ver":"1","key":1,"country":"US","permanent":true}`,
			wantBlocked:     true,
			wantPermanent:   true,
			wantTunnelCalls: 0,
		},
		{
			name:            "empty tunnel list",
			initBody:        okInit,
			tunnelsBody:     `{"agent_key":"k","ip_list":{},"port":{"direct":1}}`,
			wantNoTunnels:   true,
			wantTunnelCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeBroker{initBody: tt.initBody, tunnelsBody: tt.tunnelsBody}
			client, done := newTestClient(t, f, ProxyDirect)
			defer done()

			_, _, err := client.Negotiate(context.Background(), nil)
			if err == nil {
				t.Fatal("expected error")
			}

			var blocked *BlockedError
			if tt.wantBlocked {
				if !errors.As(err, &blocked) {
					t.Fatalf("expected BlockedError, got %v", err)
				}
				if blocked.Permanent != tt.wantPermanent {
					t.Errorf("permanent = %v, want %v", blocked.Permanent, tt.wantPermanent)
				}
				if !strings.Contains(err.Error(), "--regen-creds") {
					t.Errorf("error should tell the operator how to recover: %v", err)
				}
			}
			if tt.wantNoTunnels && !errors.Is(err, ErrNoTunnels) {
				t.Errorf("expected ErrNoTunnels, got %v", err)
			}
			if got := atomic.LoadInt32(&f.tunnelCalls); got != tt.wantTunnelCalls {
				t.Errorf("tunnel calls = %d, want %d", got, tt.wantTunnelCalls)
			}
		})
	}
}

func TestInit_MissingKey(t *testing.T) {
	f := &fakeBroker{initBody: `{"ver":"1","country":"US"}`}
	client, done := newTestClient(t, f, ProxyDirect)
	defer done()

	_, err := client.Init(context.Background(), uuid.New())
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
}

func TestInit_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Region: "ru"}, server.Client())
	_, err := client.Init(context.Background(), uuid.New())

	var respErr *ResponseError
	if !errors.As(err, &respErr) || respErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 ResponseError, got %v", err)
	}
}

func TestTunnelList_PreservesOrder(t *testing.T) {
	var list TunnelList
	data := `{"agent_key":"k","ip_list":{"c":"3.3.3.3","a":"1.1.1.1","b":"2.2.2.2"},"port":{"direct":1}}`
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	want := []Tunnel{{"c", "3.3.3.3"}, {"a", "1.1.1.1"}, {"b", "2.2.2.2"}}
	if len(list.Tunnels) != len(want) {
		t.Fatalf("expected %d tunnels, got %d", len(want), len(list.Tunnels))
	}
	for i := range want {
		if list.Tunnels[i] != want[i] {
			t.Errorf("tunnel %d = %+v, want %+v", i, list.Tunnels[i], want[i])
		}
	}
}

func TestLoginFor_Deterministic(t *testing.T) {
	id := uuid.MustParse("A0B1C2D3-E4F5-4677-8899-AABBCCDDEEFF")

	first := LoginFor(id)
	for i := 0; i < 10; i++ {
		if got := LoginFor(id); got != first {
			t.Fatalf("login changed between calls: %q vs %q", first, got)
		}
	}

	if first != "user-uuid-a0b1c2d3e4f546778899aabbccddeeff" {
		t.Errorf("unexpected login %q", first)
	}
	if strings.ToLower(first) != first || strings.Contains(first[len("user-uuid-"):], "-") {
		t.Errorf("login must be lowercase without hyphens: %q", first)
	}
}

func TestCredential_LogValueOmitsPassword(t *testing.T) {
	cred := Credential{
		Endpoint: Tunnel{IP: "1.2.3.4"}.Endpoint(80),
		Login:    "user-uuid-x",
		Password: "topsecret",
	}
	if strings.Contains(cred.LogValue().String(), "topsecret") {
		t.Error("password leaked into log value")
	}
}

func TestListCountries(t *testing.T) {
	f := &fakeBroker{}
	client, done := newTestClient(t, f, ProxyDirect)
	defer done()

	codes, err := client.ListCountries(context.Background())
	if err != nil {
		t.Fatalf("ListCountries failed: %v", err)
	}
	if len(codes) != 3 || codes[1] != "uk" {
		t.Errorf("unexpected codes %v", codes)
	}
}

func TestCountryName(t *testing.T) {
	tests := map[string]string{
		"uk": "United Kingdom",
		"UK": "United Kingdom",
		"ru": "Russia",
		"us": "United States",
		"":   "unknown",
	}
	for code, want := range tests {
		if got := CountryName(code); got != want {
			t.Errorf("CountryName(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestParseProxyType(t *testing.T) {
	if _, err := ParseProxyType("peer"); err == nil {
		t.Error("expected error for unsupported proxy type")
	}
	if p, err := ParseProxyType("lum"); err != nil || p != ProxyLum {
		t.Errorf("ParseProxyType(lum) = %v, %v", p, err)
	}
}
