package broker

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ProxyType selects which broker port map entry and region naming to use.
type ProxyType string

const (
	// ProxyDirect uses the direct tunnel port with the bare region code.
	ProxyDirect ProxyType = "direct"

	// ProxyLum uses the pooled peer network. Rarely functional upstream.
	ProxyLum ProxyType = "lum"
)

// ParseProxyType parses a configured proxy type.
func ParseProxyType(s string) (ProxyType, error) {
	switch ProxyType(s) {
	case ProxyDirect, ProxyLum:
		return ProxyType(s), nil
	default:
		return "", fmt.Errorf("invalid proxy type %q", s)
	}
}

// RegionParam returns the tunnel-list region parameter for this proxy type.
func (p ProxyType) RegionParam(region string) string {
	if p == ProxyLum {
		r := strings.ToLower(region)
		return fmt.Sprintf("%s.pool_lum_%s_shared", r, r)
	}
	return region
}

// Port picks the port for this proxy type from the broker's port map.
func (p ProxyType) Port(pm PortMap) int {
	if p == ProxyLum {
		return pm.Hola
	}
	return pm.Direct
}

// InitResult is the outcome of the init call: InitSuccess or InitBlocked.
type InitResult interface {
	isInitResult()
}

// InitSuccess is returned when the broker accepted the session.
type InitSuccess struct {
	Version    string
	SessionKey int64
	Country    string

	// Permanent is set when the broker accepted the call but flagged the
	// identity as permanently blocked.
	Permanent bool
}

// InitBlocked is returned when the broker refused the session.
type InitBlocked struct {
	Country   string
	Permanent bool
}

func (InitSuccess) isInitResult() {}
func (InitBlocked) isInitResult() {}

// PortMap is the set of ports offered by a tunnel, keyed by proxy type.
type PortMap struct {
	Direct    int `json:"direct"`
	Hola      int `json:"hola"`
	Peer      int `json:"peer"`
	Trial     int `json:"trial"`
	TrialPeer int `json:"trial_peer"`
}

// Tunnel is one candidate endpoint from the tunnel list.
type Tunnel struct {
	Hostname string
	IP       string
}

// Endpoint returns the proxy URL for the tunnel. A hostname yields an HTTPS
// proxy; without one, the bare IP is used over plain HTTP.
func (t Tunnel) Endpoint(port int) *url.URL {
	p := strconv.Itoa(port)
	if t.Hostname != "" {
		return &url.URL{Scheme: "https", Host: net.JoinHostPort(t.Hostname, p)}
	}
	return &url.URL{Scheme: "http", Host: net.JoinHostPort(t.IP, p)}
}

// Credential is a negotiated proxy endpoint with its authentication.
type Credential struct {
	// Endpoint is the proxy URL without userinfo.
	Endpoint *url.URL

	// Login is derived from the identity via LoginFor.
	Login string

	// Password is the broker's agent key. Never log it outside debug builds.
	Password string

	// Country is the region the broker reported for the session.
	Country string
}

// ProxyURL returns the endpoint with the credential attached as userinfo.
func (c Credential) ProxyURL() *url.URL {
	u := *c.Endpoint
	u.User = url.UserPassword(c.Login, c.Password)
	return &u
}

// LogValue implements slog.LogValuer. The password is never included.
func (c Credential) LogValue() slog.Value {
	endpoint := ""
	if c.Endpoint != nil {
		endpoint = c.Endpoint.String()
	}
	return slog.GroupValue(
		slog.String("endpoint", endpoint),
		slog.String("login", c.Login),
		slog.String("country", c.Country),
	)
}

// LoginFor derives the proxy login for an identity: "user-uuid-" followed
// by the lowercase hex of the UUID without hyphens.
func LoginFor(id uuid.UUID) string {
	return "user-uuid-" + simpleHex(id)
}

func simpleHex(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}
