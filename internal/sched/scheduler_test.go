package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSkipsTickWhileTaskInFlight(t *testing.T) {
	var started atomic.Int32
	var skipped atomic.Int32
	release := make(chan struct{})

	s := New(10*time.Millisecond, zap.NewNop(), func() { skipped.Add(1) })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx, func(context.Context) {
			started.Add(1)
			<-release
		})
	}()

	deadline := time.After(2 * time.Second)
	for skipped.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected skipped ticks, got %d", skipped.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := started.Load(); got != 1 {
		t.Fatalf("expected a single in-flight task, got %d", got)
	}
	close(release)
	cancel()
	<-done
}

func TestRunsTasksSequentially(t *testing.T) {
	var running atomic.Int32
	var overlapped atomic.Bool
	var count atomic.Int32

	s := New(5*time.Millisecond, zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx, func(context.Context) {
			if running.Add(1) > 1 {
				overlapped.Store(true)
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			count.Add(1)
		})
	}()

	deadline := time.After(2 * time.Second)
	for count.Load() < 5 {
		select {
		case <-deadline:
			t.Fatalf("expected 5 task runs, got %d", count.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
	if overlapped.Load() {
		t.Fatalf("tasks overlapped")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(5*time.Millisecond, zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, func(context.Context) {}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
