package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"onestopradio/internal/console"
	"onestopradio/internal/history"
	"onestopradio/internal/meter"
	"onestopradio/internal/metrics"
	"onestopradio/internal/models"
	"onestopradio/internal/poller"
	"onestopradio/internal/storage"
)

//go:embed static/*
var embeddedStatic embed.FS

const defaultHistoryLimit = 200

// Server wraps HTTP serving of the console API + dashboard assets.
type Server struct {
	httpServer   *http.Server
	console      *console.Console
	store        *storage.Store
	staticFS     fs.FS
	logger       *slog.Logger
	historyLimit int
}

// New creates a configured HTTP server for the console.
func New(addr string, cons *console.Console, store *storage.Store, logger *slog.Logger) *Server {
	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic("static assets missing: " + err.Error())
	}
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		console:      cons,
		store:        store,
		staticFS:     staticFS,
		logger:       logger,
		historyLimit: defaultHistoryLimit,
	}
	s.registerRoutes(mux)

	handler := requestLogger(logger, requestID(mux))
	s.httpServer = &http.Server{Addr: addr, Handler: handler}
	return s
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	fileServer := http.FileServer(http.FS(s.staticFS))

	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data, err := fs.ReadFile(s.staticFS, "index.html")
		if err != nil {
			http.Error(w, "index missing", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	}))
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/healthz", s.handleHealthz)

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/diagnostics", s.handlePanel(models.PanelServices))
	mux.HandleFunc("/api/diagnostics/run", s.handleRun(models.PanelServices))
	mux.HandleFunc("/api/encoding", s.handlePanel(models.PanelEncoding))
	mux.HandleFunc("/api/encoding/run", s.handleRun(models.PanelEncoding))
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/uptime", s.handleUptime)
	mux.HandleFunc("/api/timeline", s.handleTimeline)
	mux.HandleFunc("/api/meter", s.handleMeter)
	mux.HandleFunc("/api/meter/levels", s.handleMeterLevels)
	mux.HandleFunc("/api/meter/ws", s.handleMeterWS)
	mux.HandleFunc("/api/console/ws", s.handleConsoleWS)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Snapshot())
}

func (s *Server) handlePanel(panel string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		state, err := s.console.Panel(panel)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (s *Server) handleRun(panel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
			return
		}
		if err := s.console.Trigger(panel); err != nil {
			if errors.Is(err, poller.ErrPassInProgress) {
				writeError(w, http.StatusConflict, err)
				return
			}
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"panel": panel, "state": "started"})
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	panel := r.URL.Query().Get("panel")
	writeJSON(w, http.StatusOK, s.store.HistoryN(panel, limit))
}

func (s *Server) handleUptime(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	panel := r.URL.Query().Get("panel")
	if panel == "" {
		panel = models.PanelServices
	}
	entries := s.store.HistoryN(panel, limit)
	writeJSON(w, http.StatusOK, metrics.ComputeServiceUptime(entries))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	entries := s.store.HistoryN(models.PanelServices, limit)
	start, end := history.Window(entries)
	timelines := history.BuildServiceTimelines(entries, s.console.ServiceTargets(), start, end, parsePoints(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"range_start": start,
		"range_end":   end,
		"range":       history.RangeLabel(start, end),
		"services":    timelines,
	})
}

func (s *Server) handleMeter(w http.ResponseWriter, r *http.Request) {
	tracker := s.console.Meter()
	if tracker == nil {
		writeError(w, http.StatusNotFound, errors.New("meter disabled"))
		return
	}
	frame := tracker.Frame()
	writeJSON(w, http.StatusOK, meterPayload(frame, r.URL.Query().Get("layout")))
}

func (s *Server) handleMeterLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	tracker := s.console.Meter()
	if tracker == nil {
		writeError(w, http.StatusNotFound, errors.New("meter disabled"))
		return
	}

	var payload struct {
		Left  float64 `json:"left"`
		Right float64 `json:"right"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tracker.SetLevels(payload.Left, payload.Right)
	writeJSON(w, http.StatusOK, tracker.Frame())
}

func meterPayload(frame meter.Frame, layout string) map[string]any {
	count := meter.HorizontalSegments
	if layout == "vertical" {
		count = meter.VerticalSegments
	}
	return map[string]any{
		"frame":  frame,
		"layout": map[string]any{"segments": count},
		"left":   meter.BuildSegments(frame.Left, frame.PeakLeft, count),
		"right":  meter.BuildSegments(frame.Right, frame.PeakRight, count),
	}
}

func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

func parsePoints(r *http.Request) int {
	raw := r.URL.Query().Get("points")
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
