package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Scheduler fires a task at a fixed interval. A tick that arrives while the
// previous task is still running is skipped, never queued: overlapping
// evaluations against the trading state risk double submission.
type Scheduler struct {
	interval time.Duration
	log      *zap.Logger
	onSkip   func()

	busy atomic.Bool
	wg   sync.WaitGroup
}

func New(interval time.Duration, log *zap.Logger, onSkip func()) *Scheduler {
	return &Scheduler{interval: interval, log: log, onSkip: onSkip}
}

// Run blocks until ctx is canceled, firing task at the configured interval.
// The in-flight task is not canceled on shutdown; Run returns once it has
// finished.
func (s *Scheduler) Run(ctx context.Context, task func(context.Context)) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			s.fire(ctx, task)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, task func(context.Context)) {
	if !s.busy.CompareAndSwap(false, true) {
		if s.onSkip != nil {
			s.onSkip()
		}
		s.log.Debug("tick skipped, evaluation in flight")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)
		task(ctx)
	}()
}
