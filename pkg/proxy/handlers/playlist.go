package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"mercator-hq/luminous/pkg/gateway"
	"mercator-hq/luminous/pkg/proxy"
)

// ManifestContentType is the media type of HLS playlists.
const ManifestContentType = "application/vnd.apple.mpegurl"

// compatMarker separates the stream id from the path-encoded query.
const compatMarker = ".m3u8"

// PlaylistHandler serves manifests.
type PlaylistHandler struct {
	gateway Processor
	compat  bool
}

// NewPlaylistHandler creates a handler backed by gw. With compat set,
// ids may carry a path-encoded query after ".m3u8".
func NewPlaylistHandler(gw Processor, compat bool) *PlaylistHandler {
	return &PlaylistHandler{gateway: gw, compat: compat}
}

// Live handles GET /live/{channel}.
func (h *PlaylistHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, gateway.Live, r.PathValue("channel"), r.URL.Query())
}

// VOD handles GET /vod/{id}.
func (h *PlaylistHandler) VOD(w http.ResponseWriter, r *http.Request) {
	id, params := r.PathValue("id"), r.URL.Query()
	if h.compat {
		var err error
		if id, params, err = SplitCompatPath(id, params); err != nil {
			proxy.WriteError(w, r, err)
			return
		}
	}
	h.serve(w, r, gateway.VOD, id, params)
}

// Compat handles GET /playlist/{channel}, where the channel segment is
// followed by ".m3u8" and a query string encoded into the path.
func (h *PlaylistHandler) Compat(w http.ResponseWriter, r *http.Request) {
	channel, params, err := SplitCompatPath(r.PathValue("channel"), r.URL.Query())
	if err != nil {
		proxy.WriteError(w, r, err)
		return
	}
	h.serve(w, r, gateway.Live, channel, params)
}

func (h *PlaylistHandler) serve(w http.ResponseWriter, r *http.Request, kind gateway.StreamKind, id string, params url.Values) {
	req, err := gateway.NewStreamRequest(kind, id, params, h.gateway.UserAgent(r.UserAgent()))
	if err != nil {
		proxy.WriteError(w, r, err)
		return
	}

	manifest, err := h.gateway.Process(r.Context(), req)
	if err != nil {
		proxy.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", ManifestContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, manifest); err != nil {
		slog.DebugContext(r.Context(), "failed to write manifest", "error", err)
	}
}

// SplitCompatPath splits segment on the first ".m3u8" and decodes the rest
// as a query string, merged over params. Segments without the marker are
// returned unchanged.
func SplitCompatPath(segment string, params url.Values) (string, url.Values, error) {
	id, rest, found := strings.Cut(segment, compatMarker)
	if !found {
		return segment, params, nil
	}

	merged := url.Values{}
	for k, v := range params {
		merged[k] = v
	}

	rest = strings.TrimPrefix(rest, "?")
	if rest == "" {
		return id, merged, nil
	}

	decoded, err := url.ParseQuery(rest)
	if err != nil {
		return "", nil, proxy.NewError(proxy.KindInvalidRequest, http.StatusBadRequest,
			fmt.Sprintf("invalid path-encoded query: %v", err))
	}
	for k, v := range decoded {
		merged[k] = v
	}
	return id, merged, nil
}
