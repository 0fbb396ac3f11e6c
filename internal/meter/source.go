package meter

import (
	"math"
	"math/rand"
	"time"
)

const simulatorInterval = 33 * time.Millisecond

// Simulator feeds the tracker with synthesized program levels so the meter
// stays alive without a live audio feed. It stands in for the host animation
// callback of the original dashboard.
type Simulator struct {
	tracker  *Tracker
	interval time.Duration
	rng      *rand.Rand

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSimulator creates a simulator driving the given tracker.
func NewSimulator(tracker *Tracker) *Simulator {
	return &Simulator{
		tracker:  tracker,
		interval: simulatorInterval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sample loop in a goroutine.
func (s *Simulator) Start() {
	go s.run()
}

// Stop requests loop termination and waits until it is done.
func (s *Simulator) Stop() {
	select {
	case <-s.doneCh:
		return
	default:
	}
	close(s.stopCh)
	<-s.doneCh
}

func (s *Simulator) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var phase float64
	for {
		select {
		case <-ticker.C:
			phase += 0.11
			base := 55 + 25*math.Sin(phase)
			left := base + s.rng.Float64()*12 - 6
			right := base + s.rng.Float64()*12 - 6
			// Occasional transient so the peak hold has something to grab.
			if s.rng.Intn(40) == 0 {
				left += 20
				right += 18
			}
			s.tracker.SetLevels(left, right)
		case <-s.stopCh:
			return
		}
	}
}
