package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DueRunner processes whatever is due at now
type DueRunner interface {
	RunDue(ctx context.Context, now time.Time) error
}

// DueRunnerFunc adapts a function to DueRunner
type DueRunnerFunc func(ctx context.Context, now time.Time) error

func (f DueRunnerFunc) RunDue(ctx context.Context, now time.Time) error { return f(ctx, now) }

// Scheduler periodically asks a DueRunner to process due work. Ticks never
// overlap: a slow run delays the next tick instead of stacking.
type Scheduler struct {
	mu       sync.Mutex
	runner   DueRunner
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a Scheduler
func NewScheduler(runner DueRunner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches the loop; the first run happens immediately
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for the current tick to end
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("scheduler tick panicked", zap.Any("panic", p))
		}
	}()
	if err := s.runner.RunDue(ctx, s.now()); err != nil {
		s.logger.Error("scheduler tick failed", zap.Error(err))
	}
}
