// Package refresh drives the periodic re-rendering of dashboard data. A
// Scheduler is a two-state machine (idle or running) owning at most one
// armed timer; ticks that fire while the view is hidden are skipped, not
// queued.
package refresh

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler periodically invokes a reload callback while started and
// visible. It is owned by its creator; multiple schedulers never share
// state, so concurrent sessions and tests do not interfere.
type Scheduler struct {
	visible func() bool
	reload  func()
	logger  *zap.Logger

	// newTicker is swapped out in tests for a hand-driven channel
	newTicker func(d time.Duration) (<-chan time.Time, func())

	mu     sync.Mutex
	stopCh chan struct{}
}

// NewScheduler creates an idle scheduler. reload runs on the scheduler's
// goroutine, so ticks are serialized and at most one reload is in flight.
func NewScheduler(visible func() bool, reload func(), logger *zap.Logger) *Scheduler {
	return &Scheduler{
		visible: visible,
		reload:  reload,
		logger:  logger,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Start arms a repeating timer with the given interval. Calling Start on a
// running scheduler replaces the previous timer, so exactly one timer is
// armed afterwards.
func (s *Scheduler) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ticks, stopTicker := s.newTicker(interval)
	stopCh := make(chan struct{})
	s.stopCh = stopCh

	go func() {
		defer stopTicker()
		for {
			select {
			case <-stopCh:
				return
			case <-ticks:
				// a tick racing a stop must not reload
				select {
				case <-stopCh:
					return
				default:
				}
				if s.visible() {
					s.reload()
				}
			}
		}
	}()

	s.logger.Debug("refresh scheduler started", zap.Duration("interval", interval))
}

// Stop disarms the timer. Idempotent: stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Running reports whether a timer is currently armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCh != nil
}

func (s *Scheduler) stopLocked() {
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}
