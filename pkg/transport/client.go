package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"mercator-hq/luminous/pkg/telemetry/tracing"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"go.opentelemetry.io/otel/attribute"
)

// maxBufferedBody caps how much of a retryable response body is kept in
// memory so the last failure can still be inspected after retries.
const maxBufferedBody = 64 << 10

// RetryConfig bounds the exponential backoff applied to transient failures.
type RetryConfig struct {
	// MinDelay is the backoff floor between attempts.
	MinDelay time.Duration

	// MaxDelay is the backoff ceiling between attempts.
	MaxDelay time.Duration

	// MaxDuration is the total retry budget. Zero disables retries.
	MaxDuration time.Duration
}

// Config configures a Client.
type Config struct {
	// Name identifies the client in logs and metrics (e.g. "gateway", "probe").
	Name string

	// Proxy routes all requests through this URL when set.
	// http, https, socks5 and socks5h schemes are supported.
	Proxy *url.URL

	// ConnectTimeout bounds dialing a connection.
	ConnectTimeout time.Duration

	// TotalTimeout bounds a single attempt, including reading the body.
	TotalTimeout time.Duration

	// Retry configures backoff for transient failures.
	Retry RetryConfig

	// Observer receives per-attempt outcomes. Optional.
	Observer Observer
}

// Observer is notified about upstream attempts and retries.
type Observer interface {
	ObserveUpstream(client, host string, status int, duration time.Duration)
	ObserveRetry(client, host string)
}

// Client is a proxy-routed, retrying HTTP client.
type Client struct {
	name     string
	http     *http.Client
	executor failsafe.Executor[*http.Response]
	observer Observer
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Retry.MinDelay <= 0 {
		cfg.Retry.MinDelay = time.Millisecond
	}
	if cfg.Retry.MaxDelay < cfg.Retry.MinDelay {
		cfg.Retry.MaxDelay = cfg.Retry.MinDelay
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	// Create HTTP transport with connection pooling
	tr := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		ForceAttemptHTTP2:   true,
	}
	if cfg.Proxy != nil {
		switch cfg.Proxy.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", cfg.Proxy.Scheme)
		}
		tr.Proxy = http.ProxyURL(cfg.Proxy)
	}

	c := &Client{
		name:     cfg.Name,
		http:     &http.Client{Transport: tr, Timeout: cfg.TotalTimeout},
		observer: cfg.Observer,
	}
	c.executor = failsafe.With(c.newRetryPolicy(cfg.Retry))

	return c, nil
}

// Name returns the client's name.
func (c *Client) Name() string {
	return c.name
}

//nolint:bodyclose // [*http.Response] is a type parameter here, not a live response
func (c *Client) newRetryPolicy(cfg RetryConfig) retrypolicy.RetryPolicy[*http.Response] {
	builder := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			return IsTransient(resp, err)
		}).
		ReturnLastFailure()

	if cfg.MaxDuration <= 0 {
		return builder.WithMaxRetries(0).Build()
	}

	return builder.
		WithBackoff(cfg.MinDelay, cfg.MaxDelay).
		WithMaxRetries(-1).
		WithMaxDuration(cfg.MaxDuration).
		OnRetry(func(e failsafe.ExecutionEvent[*http.Response]) {
			slog.Debug("retrying upstream request",
				"client", c.name,
				"attempt", e.Attempts(),
				"error", e.LastError(),
			)
		}).
		Build()
}

// IsTransient reports whether an attempt outcome is worth retrying:
// network errors and 5xx responses. Context cancellation is never transient.
func IsTransient(resp *http.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return resp != nil && resp.StatusCode >= http.StatusInternalServerError
}

// CloseIdleConnections releases pooled connections. Clients built for a
// single use should call it when done.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// Do executes the request produced by build, retrying transient failures.
// build is called once per attempt with the execution context.
//
// When retries are exhausted the last outcome is returned as-is: either the
// last network error or the last 5xx response, whose body stays readable.
// The caller owns the returned response body.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	attempt := 0
	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		attempt++
		attemptCtx, span := tracing.StartSpan(ctx, "upstream.request",
			attribute.String("upstream.client", c.name),
			attribute.Int("upstream.attempt", attempt),
		)

		req, err := build(attemptCtx)
		if err != nil {
			tracing.End(span, err)
			return nil, err
		}
		span.SetAttributes(attribute.String("server.address", req.URL.Host))

		if attempt > 1 && c.observer != nil {
			c.observer.ObserveRetry(c.name, req.URL.Host)
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		duration := time.Since(start)

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		if c.observer != nil {
			c.observer.ObserveUpstream(c.name, req.URL.Host, status, duration)
		}

		slog.Debug("upstream attempt",
			"client", c.name,
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
			"status", status,
			"duration", duration,
			"error", err,
		)

		span.SetAttributes(attribute.Int("http.response.status_code", status))
		tracing.End(span, err)

		if err == nil && IsTransient(resp, nil) {
			bufferBody(resp)
		}
		return resp, err
	})
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}

	return resp, nil
}

// bufferBody replaces resp.Body with an in-memory copy so the connection is
// released before the next attempt.
func bufferBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBufferedBody))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
}
