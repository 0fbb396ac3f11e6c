package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"onestopradio/internal/models"
)

const (
	// DefaultTimeout caps a single check when the target does not set one.
	DefaultTimeout = 3 * time.Second

	// responseExcerptLimit bounds how much of a healthy body is surfaced.
	responseExcerptLimit = 100

	// readCap bounds how much of any body is read off the wire.
	readCap = 4096
)

// ErrPassInProgress is returned when a pass is triggered while one is running.
var ErrPassInProgress = errors.New("diagnostics pass already running")

// Recorder persists completed diagnostics passes.
type Recorder interface {
	Append(entry models.StatusEntry) error
}

// Poller checks a fixed list of targets strictly sequentially and publishes
// each record as soon as its check completes. One instance backs the service
// diagnostics panel and another the audio-encoding test panel.
type Poller struct {
	panel   string
	targets []models.Target
	client  *http.Client
	store   Recorder
	logger  *slog.Logger

	defaultTimeout time.Duration

	mu      sync.RWMutex
	records []models.CheckResult
	running bool
}

// New creates a poller for the given panel and targets. store may be nil when
// passes should not be persisted.
func New(panel string, targets []models.Target, store Recorder, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		panel:          panel,
		targets:        targets,
		client:         &http.Client{},
		store:          store,
		logger:         logger,
		defaultTimeout: DefaultTimeout,
	}
	p.records = initialRecords(targets)
	return p
}

func initialRecords(targets []models.Target) []models.CheckResult {
	records := make([]models.CheckResult, len(targets))
	for i, t := range targets {
		records[i] = models.CheckResult{
			ID:     t.ID,
			Name:   t.Name,
			URL:    t.URL,
			Status: models.StatusChecking,
		}
	}
	return records
}

// Panel returns the panel identifier this poller feeds.
func (p *Poller) Panel() string {
	return p.panel
}

// Targets returns the configured target list.
func (p *Poller) Targets() []models.Target {
	out := make([]models.Target, len(p.targets))
	copy(out, p.targets)
	return out
}

// Running reports whether a pass is currently in flight.
func (p *Poller) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Records returns a copy of the current per-target records. During a pass,
// targets not yet reached report StatusChecking.
func (p *Poller) Records() []models.CheckResult {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.CheckResult, len(p.records))
	copy(out, p.records)
	return out
}

// RunOnce executes a single sequential pass over all targets. Each target's
// record is published the moment its check finishes. The completed pass is
// appended to the recorder, if any.
func (p *Poller) RunOnce(ctx context.Context) (models.StatusEntry, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return models.StatusEntry{}, ErrPassInProgress
	}
	p.running = true
	p.records = initialRecords(p.targets)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	entry := models.StatusEntry{
		Panel:     p.panel,
		Timestamp: time.Now().UTC(),
		Checks:    make([]models.CheckResult, 0, len(p.targets)),
	}

	for i, target := range p.targets {
		timeout := time.Duration(target.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = p.defaultTimeout
		}
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		result := p.checkTarget(checkCtx, target)
		cancel()

		p.mu.Lock()
		p.records[i] = result
		p.mu.Unlock()

		entry.Checks = append(entry.Checks, result)
	}

	if p.store != nil {
		if err := p.store.Append(entry); err != nil {
			return entry, fmt.Errorf("record %s pass: %w", p.panel, err)
		}
	}
	return entry, nil
}

func (p *Poller) checkTarget(ctx context.Context, target models.Target) models.CheckResult {
	start := time.Now()
	result := models.CheckResult{
		ID:        target.ID,
		Name:      target.Name,
		URL:       target.URL,
		CheckedAt: start.UTC(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		result.Status = models.StatusOffline
		result.Error = err.Error()
		return result
	}

	response, err := p.client.Do(req)
	if err != nil {
		result.Status = models.StatusOffline
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = "Timeout"
		} else {
			result.Error = err.Error()
		}
		p.logger.Debug("check failed", "panel", p.panel, "target", target.ID, "error", result.Error)
		return result
	}
	defer response.Body.Close()

	latency := float64(time.Since(start).Milliseconds())
	result.LatencyMS = &latency
	result.StatusCode = &response.StatusCode

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		result.Status = models.StatusOnline
		result.Response = readExcerpt(response.Body)
		return result
	}

	result.Status = models.StatusError
	result.Error = fmt.Sprintf("HTTP %d", response.StatusCode)
	return result
}

func readExcerpt(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, readCap))
	if err != nil && len(data) == 0 {
		return ""
	}
	runes := []rune(string(data))
	if len(runes) > responseExcerptLimit {
		runes = runes[:responseExcerptLimit]
	}
	return string(runes)
}

// Summarize folds a record list into the panel banner state.
func Summarize(panel string, records []models.CheckResult) models.Summary {
	summary := models.Summary{Panel: panel, Total: len(records)}
	for _, record := range records {
		switch record.Status {
		case models.StatusOnline:
			summary.Online++
		case models.StatusOffline:
			summary.Offline++
		case models.StatusError:
			summary.Errored++
		default:
			summary.Checking++
		}
	}

	switch {
	case summary.Checking > 0:
		summary.State = models.SummaryChecking
	case summary.Total == 0:
		summary.State = models.SummaryDown
	case summary.Online == summary.Total:
		summary.State = models.SummaryOK
	case summary.Online == 0:
		summary.State = models.SummaryDown
	default:
		summary.State = models.SummaryDegraded
	}
	summary.Label = fmt.Sprintf("%d/%d online", summary.Online, summary.Total)
	return summary
}
