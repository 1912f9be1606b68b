// File path: internal/recon/scheduler.go
package recon

import (
	"context"
	"sync"
	"time"

	"github.com/docsync-dev/docsync/internal/common"
)

const (
	cycleRetries        = 2
	cycleRetryBackoff   = 30 * time.Second
	defaultStartupDelay = 10 * time.Second
)

// Scheduler triggers a full reconciliation cycle on a fixed interval. Each
// cycle runs under its own timeout so a hung source cannot stall the loop.
// A cycle in which every repository failed is retried a bounded number of
// times with backoff before waiting for the next tick.
type Scheduler struct {
	controller   *Controller
	interval     time.Duration
	timeout      time.Duration
	startupDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewScheduler builds a scheduler. Non-positive interval defaults to 24h,
// non-positive timeout to 1h.
func NewScheduler(controller *Controller, interval, timeout time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if timeout <= 0 {
		timeout = time.Hour
	}
	delay := defaultStartupDelay
	if interval < delay {
		delay = interval
	}
	return &Scheduler{controller: controller, interval: interval, timeout: timeout, startupDelay: delay}
}

// Start launches the loop. The first cycle fires shortly after startup so a
// restarted daemon does not wait a full interval before catching up, then the
// loop ticks on the configured interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	logger := common.Logger()
	logger.Info("recon: scheduler started", "interval", s.interval, "timeout", s.timeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		startup := time.NewTimer(s.startupDelay)
		defer startup.Stop()
		select {
		case <-loopCtx.Done():
			logger.Info("recon: scheduler stopped")
			return
		case <-startup.C:
			s.runCycle(loopCtx)
		}
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				logger.Info("recon: scheduler stopped")
				return
			case <-ticker.C:
				s.runCycle(loopCtx)
			}
		}
	}()
}

func (s *Scheduler) runCycle(ctx context.Context) {
	logger := common.Logger()
	for attempt := 0; attempt <= cycleRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt) * cycleRetryBackoff):
			}
			logger.Warn("recon: retrying failed cycle", "attempt", attempt)
		}
		ran, failed := s.runOnce(ctx)
		logger.Info("recon: scheduled cycle complete", "ran", ran, "failed", failed)
		// Retry only when every repository failed, which points at the
		// source or the index being down rather than per-repo trouble.
		if ran == 0 || failed < ran {
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) (ran, failed int) {
	cycleCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	outcomes := s.controller.RunAll(cycleCtx)
	for _, outcome := range outcomes {
		if outcome.Status == OutcomeFailed {
			failed++
		}
	}
	return len(outcomes), failed
}

// Stop halts the loop and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.started = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
