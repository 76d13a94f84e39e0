package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"mercator-hq/luminous/pkg/telemetry/tracing"
	"mercator-hq/luminous/pkg/transport"

	"go.opentelemetry.io/otel/attribute"
)

// maxManifestSize bounds how much manifest text is read.
const maxManifestSize = 8 << 20

const (
	playbackTokenOperation = "PlaybackAccessToken"
	playbackTokenHash      = "0828119ded1c13477966434e15800ff57ddacf13ba1911c129dc2200705b0712"

	// adContextParam and adContextValue are sent with every manifest
	// request; the value is an empty base64 JSON object.
	adContextParam = "acmb"
	adContextValue = "e30="
)

// Doer executes outbound requests. *transport.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error)
}

// Allowlist decides which inbound parameters are forwarded.
type Allowlist interface {
	Contains(key string) bool
}

// Observer is notified about completed manifest fetches.
type Observer interface {
	ObserveManifest(kind, country string)
}

// Config configures a Gateway.
type Config struct {
	// ClientID is the platform client identifier sent with GraphQL calls.
	ClientID string

	// GQLURL is the GraphQL endpoint.
	GQLURL string

	// UsherURL is the manifest host root, with a trailing slash.
	UsherURL string

	// UserAgentOverride replaces every inbound user agent when set.
	UserAgentOverride string

	// DefaultUserAgent is used when neither an override nor an inbound
	// user agent is available.
	DefaultUserAgent string

	// RedactIP rewrites USER-IP markers to IPPlaceholder.
	RedactIP bool

	// IPPlaceholder replaces the USER-IP value when RedactIP is set.
	IPPlaceholder string
}

// Gateway runs stream requests against the platform.
type Gateway struct {
	cfg      Config
	client   Doer
	allow    Allowlist
	observer Observer
	logger   *slog.Logger
}

// New returns a gateway issuing requests through client.
func New(cfg Config, client Doer, allow Allowlist, observer Observer) *Gateway {
	if cfg.UsherURL != "" && !strings.HasSuffix(cfg.UsherURL, "/") {
		cfg.UsherURL += "/"
	}
	return &Gateway{
		cfg:      cfg,
		client:   client,
		allow:    allow,
		observer: observer,
		logger:   slog.Default().With("component", "gateway"),
	}
}

// WithClient returns a copy of g that issues requests through client.
func (g *Gateway) WithClient(client Doer) *Gateway {
	clone := *g
	clone.client = client
	return &clone
}

// UserAgent resolves the effective user agent: the configured override,
// else the inbound value, else the default.
func (g *Gateway) UserAgent(inbound string) string {
	switch {
	case g.cfg.UserAgentOverride != "":
		return g.cfg.UserAgentOverride
	case inbound != "":
		return inbound
	default:
		return g.cfg.DefaultUserAgent
	}
}

// PlaybackToken is the signed credential for one manifest fetch.
type PlaybackToken struct {
	Value     string `json:"value"`
	Signature string `json:"signature"`
	Typename  string `json:"__typename"`
}

// TokenUnavailableError is returned when the platform answers the token
// query without a token, e.g. for a deleted video.
type TokenUnavailableError struct {
	Kind StreamKind
	ID   string
}

// Error implements the error interface.
func (e *TokenUnavailableError) Error() string {
	return fmt.Sprintf("no playback token for %s %q", e.Kind, e.ID)
}

// PersistedQuery is a GraphQL operation selected by hash.
type PersistedQuery struct {
	Operation string
	Hash      string
	Variables map[string]any
}

type persistedQueryBody struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    struct {
		PersistedQuery struct {
			Version    int    `json:"version"`
			SHA256Hash string `json:"sha256Hash"`
		} `json:"persistedQuery"`
	} `json:"extensions"`
}

// Query posts a persisted GraphQL query and decodes the JSON response into
// out. Non-2xx responses are returned as *transport.StatusError.
func (g *Gateway) Query(ctx context.Context, q PersistedQuery, userAgent string, out any) error {
	var body persistedQueryBody
	body.OperationName = q.Operation
	body.Variables = q.Variables
	body.Extensions.PersistedQuery.Version = 1
	body.Extensions.PersistedQuery.SHA256Hash = q.Hash

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s query: %w", q.Operation, err)
	}

	resp, err := g.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.GQLURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Client-ID", g.cfg.ClientID)
		req.Header.Set("Device-ID", GenerateID())
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("%s query failed: %w", q.Operation, err)
	}
	defer resp.Body.Close()

	if err := transport.CheckStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", q.Operation, err)
	}
	return nil
}

type tokenResponse struct {
	Data struct {
		Stream *PlaybackToken `json:"streamPlaybackAccessToken"`
		Video  *PlaybackToken `json:"videoPlaybackAccessToken"`
	} `json:"data"`
}

// FetchToken requests a fresh playback token for req.
func (g *Gateway) FetchToken(ctx context.Context, req StreamRequest) (PlaybackToken, error) {
	isLive := req.Kind == Live
	login, vodID := "", ""
	if isLive {
		login = req.ID
	} else {
		vodID = req.ID
	}

	q := PersistedQuery{
		Operation: playbackTokenOperation,
		Hash:      playbackTokenHash,
		Variables: map[string]any{
			"isLive":     isLive,
			"login":      login,
			"isVod":      !isLive,
			"vodID":      vodID,
			"playerType": "site",
		},
	}

	var resp tokenResponse
	if err := g.Query(ctx, q, req.UserAgent, &resp); err != nil {
		return PlaybackToken{}, err
	}

	token := resp.Data.Stream
	if token == nil {
		token = resp.Data.Video
	}
	if token == nil || token.Value == "" {
		return PlaybackToken{}, &TokenUnavailableError{Kind: req.Kind, ID: req.ID}
	}
	return *token, nil
}

// ManifestURL builds the manifest URL for req: allow-listed inbound
// parameters first, then the gateway's own parameters, which replace any
// inbound value with the same name.
func (g *Gateway) ManifestURL(req StreamRequest, token PlaybackToken) (*url.URL, error) {
	var path string
	switch req.Kind {
	case Live:
		path = "api/channel/hls/" + url.PathEscape(req.ID) + ".m3u8"
	case VOD:
		path = "vod/" + req.ID + ".m3u8"
	default:
		return nil, &InvalidRequestError{Kind: req.Kind, ID: req.ID, Message: "unknown stream kind"}
	}

	u, err := url.Parse(g.cfg.UsherURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest url: %w", err)
	}

	query := url.Values{}
	keys := make([]string, 0, len(req.Params))
	for k := range req.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if g.allow.Contains(k) {
			query[k] = slices.Clone(req.Params[k])
		}
	}

	query.Set("p", strconv.Itoa(pingValue()))
	query.Set("play_session_id", NewSessionID())
	query.Set("token", token.Value)
	query.Set("sig", token.Signature)
	query.Set(adContextParam, adContextValue)

	u.RawQuery = query.Encode()
	return u, nil
}

// FetchManifest retrieves the manifest for req using token.
func (g *Gateway) FetchManifest(ctx context.Context, req StreamRequest, token PlaybackToken) (string, error) {
	target, err := g.ManifestURL(req, token)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("User-Agent", req.UserAgent)
		return r, nil
	})
	if err != nil {
		return "", fmt.Errorf("manifest fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if err := transport.CheckStatus(resp); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return "", fmt.Errorf("failed to read manifest: %w", err)
	}
	manifest := string(data)

	country, ok := UserCountry(manifest)
	if !ok {
		country = "unknown"
	}
	g.logger.Info("manifest fetched",
		"kind", req.Kind.String(),
		"stream", req.ID,
		"user_country", country,
		"bytes", len(data),
	)
	if g.observer != nil {
		g.observer.ObserveManifest(req.Kind.String(), country)
	}

	if g.cfg.RedactIP {
		manifest = RedactUserIP(manifest, g.cfg.IPPlaceholder)
	}
	return manifest, nil
}

// Process fetches a fresh token and the manifest for req.
func (g *Gateway) Process(ctx context.Context, req StreamRequest) (manifest string, err error) {
	ctx, span := tracing.StartSpan(ctx, "gateway.process",
		attribute.String("gateway.kind", req.Kind.String()),
		attribute.String("gateway.stream", req.ID),
	)
	defer func() { tracing.End(span, err) }()

	start := time.Now()

	token, err := g.FetchToken(ctx, req)
	if err != nil {
		return "", err
	}

	manifest, err = g.FetchManifest(ctx, req, token)
	if err != nil {
		return "", err
	}

	g.logger.Debug("stream processed",
		"kind", req.Kind.String(),
		"stream", req.ID,
		"duration", time.Since(start),
	)
	return manifest, nil
}
