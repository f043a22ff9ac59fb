// Package worker runs background sequences decoupled from the request that
// started them, and the ticker that drives due broadcast tasks.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a background sequence. Its error is logged, never returned to anyone.
type Task func(ctx context.Context) error

// Runner executes tasks on goroutines detached from the caller's cancellation.
// Every task runs to completion; Shutdown waits for in-flight tasks.
type Runner struct {
	logger *zap.Logger
	base   context.Context
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a Runner
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logger, base: context.Background()}
}

// Go starts task in the background. Values from ctx (request id, etc.) are
// kept but its cancellation is not. After Shutdown, Go runs the task inline
// so late work is not lost.
func (r *Runner) Go(ctx context.Context, name string, task Task) {
	taskCtx := context.WithoutCancel(ctx)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.run(taskCtx, name, task)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		r.run(taskCtx, name, task)
	}()
}

func (r *Runner) run(ctx context.Context, name string, task Task) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("background task panicked",
				zap.String("task", name),
				zap.String("panic", fmt.Sprint(p)),
				zap.Stack("stack"),
			)
		}
	}()

	if err := task(ctx); err != nil {
		r.logger.Error("background task failed",
			zap.String("task", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	r.logger.Debug("background task done",
		zap.String("task", name),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// Wait blocks until all started tasks have finished
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown stops accepting asynchronous work and waits for in-flight tasks
// until ctx expires.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background tasks still running: %w", ctx.Err())
	}
}
