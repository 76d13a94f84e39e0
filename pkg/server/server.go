// Package server composes the playback gateway's HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/luminous/pkg/config"
	"mercator-hq/luminous/pkg/proxy/handlers"
	"mercator-hq/luminous/pkg/proxy/middleware"
	sectls "mercator-hq/luminous/pkg/security/tls"
	"mercator-hq/luminous/pkg/telemetry/metrics"
	"mercator-hq/luminous/pkg/telemetry/tracing"
)

// Dependencies are the components the routes delegate to.
type Dependencies struct {
	// Gateway serves live and VOD manifests.
	Gateway handlers.Processor

	// Status is the shared health flag read by /status.
	Status handlers.StatusReader

	// Prober runs a deep status probe for /truestat.
	Prober handlers.DeepProber

	// Metrics records request metrics and serves the scrape endpoint.
	// Nil disables both.
	Metrics *metrics.Collector

	// TruestatSecret is the resolved /truestat path secret.
	TruestatSecret string
}

// Server is the gateway's HTTP server.
type Server struct {
	config       *config.Config
	deps         Dependencies
	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new gateway server.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler, err := s.Handler()
	if err != nil {
		s.setRunning(false)
		return err
	}

	srvCfg := &s.config.Server
	s.httpServer = &http.Server{
		Handler:        handler,
		ReadTimeout:    srvCfg.ReadTimeout,
		WriteTimeout:   srvCfg.WriteTimeout,
		IdleTimeout:    srvCfg.IdleTimeout,
		MaxHeaderBytes: srvCfg.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	tlsCfg := &s.config.Security.TLS
	if tlsCfg.Enabled {
		reloader := sectls.NewCertificateReloader(tlsCfg.CertFile, tlsCfg.KeyFile, tlsCfg.ReloadInterval)
		if err := reloader.Start(ctx); err != nil {
			s.setRunning(false)
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		s.httpServer.TLSConfig = sectls.NewServerConfig(reloader)
	}

	ln, err := net.Listen("tcp", srvCfg.ListenAddress)
	if err != nil {
		s.setRunning(false)
		return fmt.Errorf("failed to listen on %s: %w", srvCfg.ListenAddress, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting gateway server",
			"address", ln.Addr().String(),
			"tls_enabled", tlsCfg.Enabled,
		)

		var err error
		if tlsCfg.Enabled {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.setRunning(false)
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if !s.IsRunning() {
			return
		}

		timeout := s.config.Server.ShutdownTimeout
		slog.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.setRunning(false)
		slog.Info("gateway server stopped")
	})

	return shutdownErr
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() (http.Handler, error) {
	app, err := s.wrap(s.routes())
	if err != nil {
		return nil, err
	}

	mc := s.config.Telemetry.Metrics
	if s.deps.Metrics == nil || !mc.Enabled {
		return app, nil
	}

	// The scrape endpoint stays reachable while the gateway is shedding.
	root := http.NewServeMux()
	root.Handle("GET "+mc.Path, s.deps.Metrics.Handler())
	root.Handle("/", app)
	return root, nil
}

// routes registers the gateway endpoints.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	gwCfg := &s.config.Gateway
	healthCfg := &s.config.Health

	playlist := handlers.NewPlaylistHandler(s.deps.Gateway, gwCfg.CompatPaths)
	status := handlers.NewStatusHandler(s.deps.Status, s.deps.Prober, healthCfg.DeepStatus, s.deps.TruestatSecret)

	s.handle(mux, "GET /live/{channel}", "live", playlist.Live)
	s.handle(mux, "GET /vod/{id}", "vod", playlist.VOD)
	s.handle(mux, "GET /status", "status", status.Status)

	if healthCfg.DeepStatus {
		s.handle(mux, "GET /truestat/{secret}", "truestat", status.TrueStatus)
	}

	if gwCfg.CompatPaths {
		s.handle(mux, "GET /playlist/{channel}", "playlist", playlist.Compat)
		s.handle(mux, "GET /ping", "ping", handlers.Ping)
	}

	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern, route string, h http.HandlerFunc) {
	handler := tracing.RouteMiddleware(route)(h)
	if s.deps.Metrics != nil {
		handler = middleware.InstrumentRoute(s.deps.Metrics, route)(handler)
	}
	mux.Handle(pattern, handler)
}

// wrap applies the middleware chain, innermost first.
func (s *Server) wrap(mux http.Handler) (http.Handler, error) {
	srvCfg := &s.config.Server
	handler := mux

	handler = middleware.TimeoutMiddleware(srvCfg.RequestTimeout)(handler)

	if srvCfg.Compression {
		compress, err := middleware.CompressionMiddleware()
		if err != nil {
			return nil, fmt.Errorf("failed to configure compression: %w", err)
		}
		handler = compress(handler)
	}

	limiter := middleware.NewConcurrentLimiter(srvCfg.MaxInFlight)
	var admission middleware.AdmissionObserver
	if s.deps.Metrics != nil {
		admission = s.deps.Metrics
	}
	handler = middleware.ConcurrencyMiddleware(limiter, admission)(handler)

	handler = middleware.LoggingMiddleware(handler)
	handler = tracing.Middleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	// Outside admission and recovery so shed and panic responses carry them.
	handler = middleware.NoCacheMiddleware(handler)
	handler = middleware.CORSMiddleware(middleware.NewCORSConfig(srvCfg.CORS))(handler)

	return handler, nil
}

// Addr returns the bound listen address once Start is serving.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Server) setRunning(running bool) {
	s.mu.Lock()
	s.isRunning = running
	s.mu.Unlock()
}
