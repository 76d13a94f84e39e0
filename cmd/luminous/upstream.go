package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"mercator-hq/luminous/pkg/broker"
	"mercator-hq/luminous/pkg/cli"
	"mercator-hq/luminous/pkg/config"
	"mercator-hq/luminous/pkg/identity"
	"mercator-hq/luminous/pkg/transport"
)

// newBrokerClient builds a broker client that talks to the broker
// directly, without a tunnel.
func newBrokerClient(cfg *config.Config, observer broker.Observer) (*broker.Client, error) {
	proxyType, err := broker.ParseProxyType(cfg.Broker.ProxyType)
	if err != nil {
		return nil, cli.NewConfigError("broker.proxy_type", err.Error())
	}

	userAgent := cfg.Upstream.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	var opts []broker.Option
	if observer != nil {
		opts = append(opts, broker.WithObserver(observer))
	}

	return broker.NewClient(broker.Config{
		BaseURL:    cfg.Broker.BaseURL,
		Region:     cfg.Broker.Region,
		ProxyType:  proxyType,
		Limit:      cfg.Broker.Limit,
		ExtVersion: cfg.Broker.ExtVersion,
		UserAgent:  userAgent,
	}, &http.Client{Timeout: cfg.Broker.Timeout}, opts...), nil
}

// resolveProxy returns the upstream proxy: the static one when configured,
// otherwise a tunnel negotiated with the broker. Negotiation happens once;
// a restart is needed to pick up new credentials.
func resolveProxy(ctx context.Context, cfg *config.Config, observer broker.Observer) (*url.URL, error) {
	if cfg.Upstream.Proxy != "" {
		u, err := url.Parse(cfg.Upstream.Proxy)
		if err != nil {
			return nil, cli.NewConfigError("upstream.proxy", err.Error())
		}
		slog.Info("using static upstream proxy", "host", u.Host)
		return u, nil
	}

	client, err := newBrokerClient(cfg, observer)
	if err != nil {
		return nil, err
	}

	store := identity.NewStore(cfg.Identity.Path)
	cred, err := client.Acquire(ctx, store, broker.AcquireOptions{
		Regenerate: cfg.Broker.RegenCreds,
		Discard:    cfg.Broker.DiscardCreds,
	})
	if err != nil {
		if errors.Is(err, broker.ErrNoTunnels) {
			return nil, cli.WithHint(err, "try another --region; 'luminous countries' lists them")
		}
		return nil, fmt.Errorf("tunnel negotiation failed: %w", err)
	}

	if cfg.Broker.LogSecrets {
		slog.Debug("tunnel credential", "login", cred.Login, "password", cred.Password)
	}

	return cred.ProxyURL(), nil
}

// newTransport builds a resilient client routed through proxy.
func newTransport(name string, cfg *config.Config, proxy *url.URL, observer transport.Observer) (*transport.Client, error) {
	return transport.New(transport.Config{
		Name:           name,
		Proxy:          proxy,
		ConnectTimeout: cfg.Upstream.ConnectTimeout,
		TotalTimeout:   cfg.Upstream.TotalTimeout,
		Retry: transport.RetryConfig{
			MinDelay:    cfg.Upstream.Retry.MinDelay,
			MaxDelay:    cfg.Upstream.Retry.MaxDelay,
			MaxDuration: cfg.Upstream.Retry.MaxDuration,
		},
		Observer: observer,
	})
}
