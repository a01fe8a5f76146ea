package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/payme/contracts/internal/platform/logger"
)

func TestPeriodicProcess(t *testing.T) {
	ctx := context.Background()
	start := time.Unix(1700000000, 0)

	var count int
	pp := NewPeriodicProcess("count", ProcessFunc(func(context.Context) { count++ }),
		5*time.Second, start)

	tests := []struct {
		offset time.Duration
		ready  bool
		count  int
	}{
		{time.Second, false, 0},
		{5 * time.Second, true, 1},
		{6 * time.Second, false, 1},
		{10 * time.Second, true, 2},
	}

	for _, tt := range tests {
		now := start.Add(tt.offset)
		if got := pp.IsReady(ctx, now); got != tt.ready {
			t.Errorf("%s : got %v, want %v", tt.offset, got, tt.ready)
		}
		if pp.IsReady(ctx, now) {
			pp.Run(ctx, now)
		}
		if count != tt.count {
			t.Errorf("%s : got %v, want %v", tt.offset, count, tt.count)
		}
	}
}

func TestCancelJob(t *testing.T) {
	ctx := context.Background()
	sch := New(time.Millisecond)

	job := NewPeriodicProcess("a", ProcessFunc(func(context.Context) {}), time.Second, time.Now())
	if err := sch.ScheduleJob(ctx, job); err != nil {
		t.Fatalf("Failed to schedule : %s", err)
	}

	same := NewPeriodicProcess("a", ProcessFunc(func(context.Context) {}), time.Hour, time.Now())
	if err := sch.CancelJob(ctx, same); err != nil {
		t.Errorf("got %v, want %v", err, nil)
	}
	if got := sch.Count(); got != 0 {
		t.Errorf("got %v, want %v", got, 0)
	}
	if err := sch.CancelJob(ctx, same); err != ErrNotFound {
		t.Errorf("got %v, want %v", err, ErrNotFound)
	}
}

func TestRunStop(t *testing.T) {
	ctx := logger.ContextWithNoLogger(context.Background())
	sch := New(time.Millisecond)

	var count int32
	ran := make(chan struct{}, 1)
	job := NewPeriodicProcess("tick", ProcessFunc(func(context.Context) {
		if atomic.AddInt32(&count, 1) == 3 {
			ran <- struct{}{}
		}
	}), time.Millisecond, time.Now())
	sch.ScheduleJob(ctx, job)

	done := make(chan error, 1)
	go func() {
		done <- sch.Run(ctx)
	}()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatalf("Job did not run")
	}

	if err := sch.Stop(ctx); err != nil {
		t.Fatalf("Failed to stop : %s", err)
	}
	if err := <-done; err != nil {
		t.Errorf("got %v, want %v", err, nil)
	}
}
