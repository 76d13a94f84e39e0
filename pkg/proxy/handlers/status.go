package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"mercator-hq/luminous/pkg/proxy"
	"mercator-hq/luminous/pkg/proxy/types"
)

// StatusHandler serves the cheap and deep status endpoints.
type StatusHandler struct {
	status     StatusReader
	prober     DeepProber
	deepStatus bool
	secret     []byte
}

// NewStatusHandler creates a status handler. When deepStatus is false,
// /status always answers 200 and TrueStatus should not be routed.
func NewStatusHandler(status StatusReader, prober DeepProber, deepStatus bool, secret string) *StatusHandler {
	return &StatusHandler{
		status:     status,
		prober:     prober,
		deepStatus: deepStatus,
		secret:     []byte(secret),
	}
}

// Status handles GET /status. It never runs a probe.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	online := h.status.Online()

	code := http.StatusOK
	if h.deepStatus && !online {
		code = http.StatusServiceUnavailable
	}
	h.write(w, r, code, online)
}

// TrueStatus handles GET /truestat/{secret}: it runs a deep probe when the
// secret matches exactly.
func (h *StatusHandler) TrueStatus(w http.ResponseWriter, r *http.Request) {
	given := []byte(r.PathValue("secret"))
	if len(h.secret) == 0 || subtle.ConstantTimeCompare(given, h.secret) != 1 {
		proxy.WriteError(w, r, proxy.Forbidden())
		return
	}

	// A monitor hanging up early must not mark the pipeline offline.
	online := h.prober.DeepStatus(context.WithoutCancel(r.Context()))

	code := http.StatusOK
	if !online {
		code = http.StatusServiceUnavailable
	}
	h.write(w, r, code, online)
}

func (h *StatusHandler) write(w http.ResponseWriter, r *http.Request, code int, online bool) {
	if err := proxy.WriteJSONResponse(w, code, types.StatusResponse{Online: online}); err != nil {
		slog.DebugContext(r.Context(), "failed to write status response", "error", err)
	}
}

// Ping handles GET /ping for clients that check reachability before
// rewriting playlist URLs.
func Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
}
