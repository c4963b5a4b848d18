package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskfin/internal/core"
)

type countingRefresher struct {
	calls int
	err   error
}

func (r *countingRefresher) RefreshAll(context.Context) error {
	r.calls++
	return r.err
}

func TestDefaultSchedulerConfig(t *testing.T) {
	if got := DefaultSchedulerConfig().Interval; got != time.Hour {
		t.Errorf("Interval = %v, want 1h", got)
	}
	s := NewScheduler(NewRecurringProcessor(newFakeStore()), nil, SchedulerConfig{})
	if s.config.Interval != time.Hour {
		t.Errorf("zero interval should default, got %v", s.config.Interval)
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	fake := newFakeStore()
	fake.recurrences = []core.Recurrence{recurrence("rent", core.NewDate(2026, 3, 1))}
	refresher := &countingRefresher{}

	s := NewScheduler(NewRecurringProcessor(fake), refresher, DefaultSchedulerConfig())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

	n, err := s.RunOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("RunOnce() = %d, %v", n, err)
	}
	if refresher.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", refresher.calls)
	}

	refresher.err = errBackend
	if _, err := s.RunOnce(context.Background()); !errors.Is(err, errBackend) {
		t.Errorf("refresh failure should abort the run, got %v", err)
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := NewScheduler(NewRecurringProcessor(newFakeStore()), nil, SchedulerConfig{Interval: time.Hour})

	if s.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting an already running scheduler")
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}
