package console

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"onestopradio/internal/meter"
	"onestopradio/internal/models"
	"onestopradio/internal/poller"
)

// PanelState is one diagnostics panel as the dashboard sees it.
type PanelState struct {
	Panel   string               `json:"panel"`
	Running bool                 `json:"running"`
	Records []models.CheckResult `json:"records"`
	Summary models.Summary       `json:"summary"`
}

// Snapshot is the aggregate view pushed to the dashboard.
type Snapshot struct {
	GeneratedAt  time.Time                  `json:"generated_at"`
	Services     PanelState                 `json:"services"`
	Encoding     PanelState                 `json:"encoding"`
	Connectivity *models.ConnectivityStatus `json:"connectivity,omitempty"`
	Meter        meter.Frame                `json:"meter"`
}

// Console owns the console's subsystems and produces aggregate snapshots.
type Console struct {
	services     *poller.Poller
	encoding     *poller.Poller
	tracker      *meter.Tracker
	connectivity *poller.ConnectivityMonitor
	logger       *slog.Logger
	interval     time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// New wires the console together. interval <= 0 disables the periodic loop;
// passes then run only on start and on explicit trigger.
func New(
	services, encoding *poller.Poller,
	tracker *meter.Tracker,
	connectivity *poller.ConnectivityMonitor,
	interval time.Duration,
	logger *slog.Logger,
) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{
		services:     services,
		encoding:     encoding,
		tracker:      tracker,
		connectivity: connectivity,
		logger:       logger,
		interval:     interval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start runs an initial diagnostics pass and, when configured, the periodic
// re-poll loop.
func (c *Console) Start() {
	go c.run()
}

// Stop requests loop termination and waits until it is done.
func (c *Console) Stop() {
	select {
	case <-c.doneCh:
		return
	default:
	}
	close(c.stopCh)
	<-c.doneCh
}

// Snapshot assembles the current aggregate view.
func (c *Console) Snapshot() Snapshot {
	snapshot := Snapshot{
		GeneratedAt: time.Now().UTC(),
		Services:    c.panelState(c.services),
		Encoding:    c.panelState(c.encoding),
	}
	if c.tracker != nil {
		snapshot.Meter = c.tracker.Frame()
	}
	if c.connectivity != nil {
		if latest, ok := c.connectivity.Latest(); ok {
			snapshot.Connectivity = &latest
		}
	}
	return snapshot
}

// Panel returns the current state of one panel.
func (c *Console) Panel(panel string) (PanelState, error) {
	p, err := c.pollerFor(panel)
	if err != nil {
		return PanelState{}, err
	}
	return c.panelState(p), nil
}

// Trigger starts a pass for the named panel in the background. It returns
// poller.ErrPassInProgress when a pass is already running.
func (c *Console) Trigger(panel string) error {
	p, err := c.pollerFor(panel)
	if err != nil {
		return err
	}
	if p.Running() {
		return poller.ErrPassInProgress
	}
	go func() {
		if _, err := p.RunOnce(context.Background()); err != nil {
			c.logger.Warn("diagnostics pass failed", "panel", panel, "error", err)
		}
	}()
	return nil
}

// Meter returns the tracker, for handlers that feed or read levels directly.
func (c *Console) Meter() *meter.Tracker {
	return c.tracker
}

// ServiceTargets returns the configured service panel targets.
func (c *Console) ServiceTargets() []models.Target {
	return c.services.Targets()
}

func (c *Console) pollerFor(panel string) (*poller.Poller, error) {
	switch panel {
	case models.PanelServices:
		return c.services, nil
	case models.PanelEncoding:
		return c.encoding, nil
	default:
		return nil, fmt.Errorf("unknown panel %q", panel)
	}
}

func (c *Console) panelState(p *poller.Poller) PanelState {
	records := p.Records()
	return PanelState{
		Panel:   p.Panel(),
		Running: p.Running(),
		Records: records,
		Summary: poller.Summarize(p.Panel(), records),
	}
}

func (c *Console) run() {
	defer close(c.doneCh)

	c.runBothPanels()

	if c.interval <= 0 {
		<-c.stopCh
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runBothPanels()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Console) runBothPanels() {
	for _, p := range []*poller.Poller{c.services, c.encoding} {
		if _, err := p.RunOnce(context.Background()); err != nil {
			c.logger.Warn("diagnostics pass failed", "panel", p.Panel(), "error", err)
		}
	}
}
