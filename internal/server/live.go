package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	consolePushInterval = time.Second
	meterPushInterval   = 100 * time.Millisecond
	liveWriteTimeout    = 5 * time.Second
)

var liveUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

func (s *Server) handleConsoleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.servePushLoop(conn, consolePushInterval, func() any {
		return s.console.Snapshot()
	})
}

func (s *Server) handleMeterWS(w http.ResponseWriter, r *http.Request) {
	tracker := s.console.Meter()
	if tracker == nil {
		http.Error(w, "meter disabled", http.StatusNotFound)
		return
	}
	layout := r.URL.Query().Get("layout")
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.servePushLoop(conn, meterPushInterval, func() any {
		return meterPayload(tracker.Frame(), layout)
	})
}

func (s *Server) servePushLoop(conn *websocket.Conn, interval time.Duration, payload func() any) {
	defer conn.Close()

	if err := writeLivePayload(conn, payload()); err != nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			if err := writeLivePayload(conn, payload()); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeLivePayload(conn *websocket.Conn, payload any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	return conn.WriteJSON(payload)
}
