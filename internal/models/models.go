package models

import "time"

// Status values a check can be in. A record starts as StatusChecking when a
// pass begins and settles into exactly one of the other three states.
const (
	StatusChecking = "checking"
	StatusOnline   = "online"
	StatusOffline  = "offline"
	StatusError    = "error"
)

// Panel identifiers for the two diagnostic views.
const (
	PanelServices = "services"
	PanelEncoding = "encoding"
)

// Target defines a monitored HTTP endpoint.
type Target struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	URL            string `yaml:"url" json:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// CheckResult captures the outcome of a single target check.
type CheckResult struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Status     string    `json:"status"`
	Response   string    `json:"response,omitempty"`
	Error      string    `json:"error,omitempty"`
	StatusCode *int      `json:"status_code,omitempty"`
	LatencyMS  *float64  `json:"latency_ms,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// StatusEntry stores the results of one full diagnostics pass.
type StatusEntry struct {
	Panel     string        `json:"panel"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// Summary aggregates a panel's records into a single banner state.
type Summary struct {
	Panel    string `json:"panel"`
	Total    int    `json:"total"`
	Online   int    `json:"online"`
	Offline  int    `json:"offline"`
	Errored  int    `json:"errored"`
	Checking int    `json:"checking"`
	State    string `json:"state"`
	Label    string `json:"label"`
}

// Summary states: a running pass reports checking, a finished pass reports
// ok, degraded, or down.
const (
	SummaryChecking = "checking"
	SummaryOK       = "ok"
	SummaryDegraded = "degraded"
	SummaryDown     = "down"
)

// ConnectivityStatus captures the outcome of a raw reachability probe.
type ConnectivityStatus struct {
	Target    string    `json:"target"`
	OK        bool      `json:"ok"`
	LatencyMs int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
