package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"onestopradio/internal/console"
	"onestopradio/internal/meter"
	"onestopradio/internal/models"
	"onestopradio/internal/poller"
	"onestopradio/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *console.Console, *storage.Store) {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(backend.Close)

	store, err := storage.New(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	targets := []models.Target{{ID: "api", Name: "API", URL: backend.URL}}
	services := poller.New(models.PanelServices, targets, store, nil)
	encoding := poller.New(models.PanelEncoding, targets, store, nil)
	tracker := meter.NewTracker(meter.DefaultDecayInterval, meter.DefaultDecayStep)
	cons := console.New(services, encoding, tracker, nil, 0, nil)

	srv := New(":0", cons, store, nil)
	front := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(front.Close)
	return front, cons, store
}

func getJSON(t *testing.T, url string, dest any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestStatusEndpoint(t *testing.T) {
	front, cons, _ := newTestServer(t)
	cons.Meter().SetLevels(33, 44)

	var snapshot console.Snapshot
	resp := getJSON(t, front.URL+"/api/status", &snapshot)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if snapshot.Meter.Left != 33 || snapshot.Meter.Right != 44 {
		t.Fatalf("meter = %+v", snapshot.Meter)
	}
	if snapshot.Services.Summary.Total != 1 {
		t.Fatalf("services summary = %+v", snapshot.Services.Summary)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("missing X-Request-Id header")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	front, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, front.URL+"/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

func TestRunEndpointTriggersPass(t *testing.T) {
	front, cons, _ := newTestServer(t)

	resp, err := http.Post(front.URL+"/api/diagnostics/run", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	deadline := time.After(2 * time.Second)
	for {
		state, err := cons.Panel(models.PanelServices)
		if err != nil {
			t.Fatal(err)
		}
		if !state.Running && state.Summary.State == models.SummaryOK {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("pass never completed: %+v", state)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunEndpointRequiresPOST(t *testing.T) {
	front, _, _ := newTestServer(t)
	resp := getJSON(t, front.URL+"/api/encoding/run", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestMeterEndpointLayouts(t *testing.T) {
	front, cons, _ := newTestServer(t)
	cons.Meter().SetLevels(50, 50)

	var payload struct {
		Left  []meter.Segment `json:"left"`
		Right []meter.Segment `json:"right"`
	}
	getJSON(t, front.URL+"/api/meter", &payload)
	if len(payload.Left) != meter.HorizontalSegments {
		t.Fatalf("horizontal segments = %d", len(payload.Left))
	}

	getJSON(t, front.URL+"/api/meter?layout=vertical", &payload)
	if len(payload.Right) != meter.VerticalSegments {
		t.Fatalf("vertical segments = %d", len(payload.Right))
	}
}

func TestMeterLevelsEndpoint(t *testing.T) {
	front, _, _ := newTestServer(t)

	body := bytes.NewBufferString(`{"left": 80, "right": 120}`)
	resp, err := http.Post(front.URL+"/api/meter/levels", "application/json", body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var frame meter.Frame
	if err := json.NewDecoder(resp.Body).Decode(&frame); err != nil {
		t.Fatal(err)
	}
	if frame.Left != 80 || frame.Right != 100 {
		t.Fatalf("frame = %+v, want clamped 80/100", frame)
	}
}

func TestMeterLevelsRejectsUnknownFields(t *testing.T) {
	front, _, _ := newTestServer(t)
	body := bytes.NewBufferString(`{"left": 1, "bogus": true}`)
	resp, err := http.Post(front.URL+"/api/meter/levels", "application/json", body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHistoryAndUptimeEndpoints(t *testing.T) {
	front, cons, store := newTestServer(t)

	if err := cons.Trigger(models.PanelServices); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(2 * time.Second)
	for len(store.HistoryN(models.PanelServices, 0)) == 0 {
		select {
		case <-deadline:
			t.Fatal("pass never recorded")
		case <-time.After(10 * time.Millisecond):
		}
	}

	var history []models.StatusEntry
	getJSON(t, front.URL+"/api/history?panel=services", &history)
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}

	var uptime []struct {
		ID            string  `json:"id"`
		UptimePercent float64 `json:"uptime_percent"`
	}
	getJSON(t, front.URL+"/api/uptime", &uptime)
	if len(uptime) != 1 || uptime[0].UptimePercent != 100 {
		t.Fatalf("uptime = %+v", uptime)
	}
}

func TestMeterWebSocketPushesFrames(t *testing.T) {
	front, cons, _ := newTestServer(t)
	cons.Meter().SetLevels(60, 70)

	wsURL := "ws" + strings.TrimPrefix(front.URL, "http") + "/api/meter/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var payload struct {
		Frame meter.Frame     `json:"frame"`
		Left  []meter.Segment `json:"left"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&payload); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if payload.Frame.Left != 60 {
		t.Fatalf("frame left = %v, want 60", payload.Frame.Left)
	}
	if len(payload.Left) != meter.HorizontalSegments {
		t.Fatalf("segments = %d", len(payload.Left))
	}
}

func TestIndexServed(t *testing.T) {
	front, _, _ := newTestServer(t)
	resp, err := http.Get(front.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %s", ct)
	}
}
