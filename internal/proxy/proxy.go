package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"onestopradio/internal/config"
)

// backend is one reverse-proxied platform role.
type backend struct {
	role    string
	label   string
	prefix  string
	target  *url.URL
	reverse *httputil.ReverseProxy
}

// Router routes dashboard requests to the platform backends during local
// development. The routing table is static; connection failures are masked
// with a role-labeled JSON error so the dashboard can render them inline.
type Router struct {
	api       *backend
	signaling *backend
	media     *backend
	websocket *backend
	logger    *slog.Logger
}

// Second path segments under /api/ owned by the signaling server.
var signalingPaths = map[string]struct{}{
	"audio":     {},
	"video":     {},
	"session":   {},
	"listeners": {},
	"chat":      {},
	"media":     {},
	"streaming": {},
	"health":    {},
	"endpoints": {},
}

// Second path segments under /api/ owned by the media server.
var mediaPaths = map[string]struct{}{
	"webrtc": {},
	"mixer":  {},
	"rtmp":   {},
	"hls":    {},
	"dash":   {},
	"stats":  {},
}

// New builds a router from the configured backend roles.
func New(backends config.Backends, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{logger: logger}

	var err error
	if r.api, err = newBackend(config.RoleAPI, backends.API, logger); err != nil {
		return nil, err
	}
	if r.signaling, err = newBackend(config.RoleSignaling, backends.Signaling, logger); err != nil {
		return nil, err
	}
	if r.media, err = newBackend(config.RoleMedia, backends.Media, logger); err != nil {
		return nil, err
	}
	if r.websocket, err = newBackend(config.RoleWebSocket, backends.WebSocket, logger); err != nil {
		return nil, err
	}
	return r, nil
}

func newBackend(role string, cfg config.Backend, logger *slog.Logger) (*backend, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("backend %s base_url is required", role)
	}
	// Websocket targets are dialed as plain HTTP; the reverse proxy passes
	// the Upgrade handshake through.
	raw = strings.Replace(raw, "ws://", "http://", 1)
	raw = strings.Replace(raw, "wss://", "https://", 1)

	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("backend %s base_url: %w", role, err)
	}

	b := &backend{
		role:   role,
		label:  cfg.Label,
		prefix: cfg.ErrorPrefix,
		target: target,
	}
	b.reverse = httputil.NewSingleHostReverseProxy(target)
	b.reverse.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("proxy error", "role", role, "path", r.URL.Path, "error", err)
		writeProxyError(w, b, err)
	}
	return b, nil
}

// Handler returns the proxy's HTTP handler.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		r.websocket.reverse.ServeHTTP(w, req)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, req *http.Request) {
		r.route(req.URL.Path).reverse.ServeHTTP(w, req)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "no backend mapping for " + req.URL.Path,
		})
	})
	return mux
}

// route picks the backend for an /api/ path. /api/v1/* goes to the primary
// API; known second segments go to the signaling or media server; anything
// else falls through to the primary API.
func (r *Router) route(path string) *backend {
	rest := strings.TrimPrefix(path, "/api/")
	segment := rest
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		segment = rest[:idx]
	}

	switch {
	case segment == "v1":
		return r.api
	default:
		if _, ok := signalingPaths[segment]; ok {
			return r.signaling
		}
		if _, ok := mediaPaths[segment]; ok {
			return r.media
		}
		return r.api
	}
}

func writeProxyError(w http.ResponseWriter, b *backend, err error) {
	message := err.Error()
	if b.prefix != "" {
		message = fmt.Sprintf("%s: %s", b.prefix, message)
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   message,
		"service": b.label,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
