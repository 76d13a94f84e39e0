package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	extBrowser = "firefox"
	extProduct = "www"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer is notified about negotiation outcomes.
type Observer interface {
	ObserveNegotiation(outcome string, duration time.Duration)
}

// Config configures a broker Client.
type Config struct {
	// BaseURL is the broker's client CGI root, with a trailing slash.
	BaseURL string

	// Region is the two-letter region the tunnels should exit in.
	Region string

	// ProxyType selects the port and region naming.
	ProxyType ProxyType

	// Limit is the number of tunnels to request.
	Limit int

	// ExtVersion is the extension version reported to the broker.
	ExtVersion string

	// UserAgent is sent with every broker request.
	UserAgent string
}

// Client talks to the tunnel broker. Broker calls are never retried.
type Client struct {
	cfg      Config
	http     Doer
	observer Observer

	// pick returns a random index in [0, n).
	pick func(n int) int
}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports negotiation outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient returns a broker client that issues requests through doer.
func NewClient(cfg Config, doer Doer, opts ...Option) *Client {
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.ProxyType == "" {
		cfg.ProxyType = ProxyDirect
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 3
	}

	c := &Client{
		cfg:  cfg,
		http: doer,
		pick: rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// initResponse is the raw background_init payload.
type initResponse struct {
	Ver       string `json:"ver"`
	Key       *int64 `json:"key"`
	Country   string `json:"country"`
	Blocked   bool   `json:"blocked"`
	Permanent bool   `json:"permanent"`
}

// Init registers id with the broker.
func (c *Client) Init(ctx context.Context, id uuid.UUID) (InitResult, error) {
	target, err := c.endpoint("background_init", url.Values{"uuid": {simpleHex(id)}})
	if err != nil {
		return nil, err
	}

	form := url.Values{"login": {"1"}, "ver": {c.cfg.ExtVersion}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create init request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var raw initResponse
	if err := c.doJSON(req, "background_init", &raw); err != nil {
		return nil, err
	}

	slog.Debug("broker init response",
		"version", raw.Ver,
		"country", raw.Country,
		"blocked", raw.Blocked,
		"permanent", raw.Permanent,
	)

	if raw.Blocked {
		return InitBlocked{Country: raw.Country, Permanent: raw.Permanent}, nil
	}
	if raw.Key == nil {
		return nil, &ResponseError{Endpoint: "background_init", Cause: fmt.Errorf("missing session key")}
	}

	return InitSuccess{
		Version:    raw.Ver,
		SessionKey: *raw.Key,
		Country:    raw.Country,
		Permanent:  raw.Permanent,
	}, nil
}

// TunnelList is the decoded zgettunnels payload.
type TunnelList struct {
	AgentKey string     `json:"agent_key"`
	Tunnels  tunnelList `json:"ip_list"`
	Port     PortMap    `json:"port"`
}

// tunnelList decodes the hostname-to-ip object while keeping its order.
type tunnelList []Tunnel

// UnmarshalJSON implements json.Unmarshaler.
func (l *tunnelList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("ip_list: expected object, got %v", tok)
	}

	var out tunnelList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		var ip string
		if err := dec.Decode(&ip); err != nil {
			return fmt.Errorf("ip_list: %w", err)
		}
		out = append(out, Tunnel{Hostname: keyTok.(string), IP: ip})
	}

	*l = out
	return nil
}

// Tunnels lists tunnels for the configured region using a session key
// obtained from Init.
func (c *Client) Tunnels(ctx context.Context, id uuid.UUID, sessionKey int64) (*TunnelList, error) {
	params := url.Values{}
	params.Set("country", c.cfg.ProxyType.RegionParam(c.cfg.Region))
	params.Set("limit", strconv.Itoa(c.cfg.Limit))
	params.Set("ping_id", strconv.FormatFloat(rand.Float64(), 'f', -1, 64))
	params.Set("ext_ver", c.cfg.ExtVersion)
	params.Set("browser", extBrowser)
	params.Set("product", extProduct)
	params.Set("uuid", simpleHex(id))
	params.Set("session_key", strconv.FormatInt(sessionKey, 10))
	params.Set("is_premium", "0")

	target, err := c.endpoint("zgettunnels", params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tunnel request: %w", err)
	}

	var list TunnelList
	if err := c.doJSON(req, "zgettunnels", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Negotiate runs the init and tunnel-list exchange and returns a credential
// for one randomly chosen tunnel. A fresh identity is generated when id is
// nil; the identity actually used is always returned.
func (c *Client) Negotiate(ctx context.Context, id *uuid.UUID) (Credential, uuid.UUID, error) {
	start := time.Now()
	cred, used, err := c.negotiate(ctx, id)

	if c.observer != nil {
		outcome := "success"
		switch err.(type) {
		case nil:
		case *BlockedError:
			outcome = "blocked"
		default:
			outcome = "error"
		}
		c.observer.ObserveNegotiation(outcome, time.Since(start))
	}

	return cred, used, err
}

func (c *Client) negotiate(ctx context.Context, id *uuid.UUID) (Credential, uuid.UUID, error) {
	identity := uuid.New()
	if id != nil {
		identity = *id
	}

	slog.Debug("negotiating tunnel", "region", c.cfg.Region, "proxy_type", c.cfg.ProxyType, "fresh_identity", id == nil)

	result, err := c.Init(ctx, identity)
	if err != nil {
		return Credential{}, identity, err
	}

	var session InitSuccess
	switch r := result.(type) {
	case InitBlocked:
		return Credential{}, identity, &BlockedError{Permanent: r.Permanent, Country: r.Country}
	case InitSuccess:
		if r.Permanent {
			return Credential{}, identity, &BlockedError{Permanent: true, Country: r.Country}
		}
		session = r
	}

	list, err := c.Tunnels(ctx, identity, session.SessionKey)
	if err != nil {
		return Credential{}, identity, err
	}
	if len(list.Tunnels) == 0 {
		return Credential{}, identity, ErrNoTunnels
	}

	tunnel := list.Tunnels[c.pick(len(list.Tunnels))]
	port := c.cfg.ProxyType.Port(list.Port)
	if port == 0 {
		return Credential{}, identity, &ResponseError{
			Endpoint: "zgettunnels",
			Cause:    fmt.Errorf("no %s port in tunnel response", c.cfg.ProxyType),
		}
	}

	cred := Credential{
		Endpoint: tunnel.Endpoint(port),
		Login:    LoginFor(identity),
		Password: list.AgentKey,
		Country:  session.Country,
	}
	return cred, identity, nil
}

// ListCountries returns the region codes the broker can exit in.
func (c *Client) ListCountries(ctx context.Context) ([]string, error) {
	target, err := c.endpoint("vpn_countries.json", nil)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create countries request: %w", err)
	}
	req.Header.Set("browser", extBrowser)

	var codes []string
	if err := c.doJSON(req, "vpn_countries", &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func (c *Client) endpoint(name string, params url.Values) (string, error) {
	u, err := url.Parse(c.cfg.BaseURL + name)
	if err != nil {
		return "", fmt.Errorf("invalid broker url: %w", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	return u.String(), nil
}

func (c *Client) doJSON(req *http.Request, endpoint string, out any) error {
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("broker %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &ResponseError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ResponseError{Endpoint: endpoint, Cause: err}
	}
	return nil
}
