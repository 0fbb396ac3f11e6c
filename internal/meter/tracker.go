package meter

import (
	"sync"
	"time"
)

const (
	// DefaultDecayInterval matches the original dashboard's peak-hold timer.
	DefaultDecayInterval = 50 * time.Millisecond
	// DefaultDecayStep is how far a peak-hold value falls per decay tick.
	DefaultDecayStep = 1.0

	maxLevel = 100.0
)

// Frame is a point-in-time snapshot of both channels.
type Frame struct {
	Left      float64   `json:"left"`
	Right     float64   `json:"right"`
	PeakLeft  float64   `json:"peak_left"`
	PeakRight float64   `json:"peak_right"`
	At        time.Time `json:"at"`
}

// Tracker keeps instantaneous left/right levels and a decaying peak-hold
// value per channel. Peaks rise immediately with new samples and fall on a
// fixed-interval timer that runs independently of sample arrival.
type Tracker struct {
	interval time.Duration
	step     float64

	mu        sync.RWMutex
	left      float64
	right     float64
	peakLeft  float64
	peakRight float64

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewTracker creates a tracker with the given decay cadence. Non-positive
// arguments fall back to the defaults.
func NewTracker(interval time.Duration, step float64) *Tracker {
	if interval <= 0 {
		interval = DefaultDecayInterval
	}
	if step <= 0 {
		step = DefaultDecayStep
	}
	return &Tracker{
		interval: interval,
		step:     step,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the decay loop in a goroutine.
func (t *Tracker) Start() {
	go t.run()
}

// Stop requests loop termination and waits until it is done.
func (t *Tracker) Stop() {
	select {
	case <-t.doneCh:
		return
	default:
	}
	close(t.stopCh)
	<-t.doneCh
}

// SetLevels records a new sample pair. Levels are clamped to [0,100]; a
// channel's peak-hold rises when the new level exceeds it and is otherwise
// left for the decay timer.
func (t *Tracker) SetLevels(left, right float64) {
	left = clamp(left)
	right = clamp(right)

	t.mu.Lock()
	t.left = left
	t.right = right
	if left > t.peakLeft {
		t.peakLeft = left
	}
	if right > t.peakRight {
		t.peakRight = right
	}
	t.mu.Unlock()
}

// Frame returns the current levels and peak-hold values.
func (t *Tracker) Frame() Frame {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Frame{
		Left:      t.left,
		Right:     t.right,
		PeakLeft:  t.peakLeft,
		PeakRight: t.peakRight,
		At:        time.Now().UTC(),
	}
}

func (t *Tracker) run() {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.decay()
		case <-t.stopCh:
			return
		}
	}
}

func (t *Tracker) decay() {
	t.mu.Lock()
	t.peakLeft = floorZero(t.peakLeft - t.step)
	t.peakRight = floorZero(t.peakRight - t.step)
	t.mu.Unlock()
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxLevel {
		return maxLevel
	}
	return v
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
