package poller

import (
	"net"
	"strings"
	"sync"
	"time"

	"onestopradio/internal/config"
	"onestopradio/internal/models"
)

const connectivityHistoryCap = 512

// ConnectivityMonitor periodically probes raw reachability of the platform's
// websocket upgrade target with a bounded-timeout TCP dial.
type ConnectivityMonitor struct {
	cfg      config.Connectivity
	interval time.Duration

	mu      sync.RWMutex
	latest  *models.ConnectivityStatus
	history []models.ConnectivityStatus

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewConnectivityMonitor configures a new reachability monitor.
func NewConnectivityMonitor(cfg config.Connectivity) *ConnectivityMonitor {
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &ConnectivityMonitor{
		cfg:      cfg,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the probe loop. If disabled, the monitor exits immediately.
func (m *ConnectivityMonitor) Start() {
	if !m.cfg.Enabled {
		close(m.doneCh)
		return
	}
	go m.run()
}

// Stop requests the probe loop to terminate.
func (m *ConnectivityMonitor) Stop() {
	select {
	case <-m.doneCh:
		return
	default:
	}
	close(m.stopCh)
	<-m.doneCh
}

// Latest returns the most recent reachability sample.
func (m *ConnectivityMonitor) Latest() (models.ConnectivityStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latest == nil {
		return models.ConnectivityStatus{}, false
	}
	return *m.latest, true
}

// History returns up to the retained number of previous samples.
func (m *ConnectivityMonitor) History() []models.ConnectivityStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.history) == 0 {
		return nil
	}
	out := make([]models.ConnectivityStatus, len(m.history))
	copy(out, m.history)
	return out
}

func (m *ConnectivityMonitor) run() {
	defer close(m.doneCh)

	timeout := time.Duration(m.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 4 * time.Second
	}

	m.probe(timeout)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probe(timeout)
		case <-m.stopCh:
			return
		}
	}
}

func (m *ConnectivityMonitor) probe(timeout time.Duration) {
	target := strings.TrimSpace(m.cfg.Target)
	if target == "" {
		return
	}

	address := target
	if !strings.Contains(address, ":") {
		address = net.JoinHostPort(address, "80")
	}

	started := time.Now()
	conn, err := net.DialTimeout("tcp", address, timeout)

	status := models.ConnectivityStatus{
		Target:    target,
		CheckedAt: time.Now().UTC(),
	}
	if err != nil {
		status.Error = err.Error()
	} else {
		status.OK = true
		status.LatencyMs = int64(time.Since(started) / time.Millisecond)
		_ = conn.Close()
	}

	m.mu.Lock()
	m.latest = &status
	m.history = append(m.history, status)
	if len(m.history) > connectivityHistoryCap {
		m.history = m.history[len(m.history)-connectivityHistoryCap:]
	}
	m.mu.Unlock()
}
