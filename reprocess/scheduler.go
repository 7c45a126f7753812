package reprocess

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"songhouse/logger"

	"github.com/google/uuid"
)

// Scheduler triggers the all-users sweep on a fixed interval. A sweep still
// running when the next tick fires is skipped, never run concurrently with
// itself.
type Scheduler struct {
	service  *Service
	interval time.Duration

	running  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(service *Service, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the ticker loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
	logger.Info("reprocess scheduler started", logger.Duration("interval", s.interval))
}

// Stop halts the ticker and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

// Trigger starts a sweep now unless one is already running. Returns whether
// the sweep was started.
func (s *Scheduler) Trigger() bool {
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn("reprocess sweep already running, skipping trigger")
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.sweep()
	}()
	return true
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Trigger()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) sweep() {
	sweepID := uuid.NewString()
	start := time.Now()
	logger.Info("reprocess sweep starting", logger.String("sweepId", sweepID))

	if err := s.service.ReprocessAllUsers(context.Background()); err != nil {
		logger.Error("reprocess sweep failed",
			logger.String("sweepId", sweepID),
			logger.ErrorField(err))
		return
	}
	logger.Info("reprocess sweep finished",
		logger.String("sweepId", sweepID),
		logger.Duration("took", time.Since(start)))
}
