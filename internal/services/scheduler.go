package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SchedulerConfig holds configuration for the recurring scheduler
type SchedulerConfig struct {
	// Interval is how often due recurrences are processed (default: 1h)
	Interval time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Interval: time.Hour}
}

// Refresher reloads the records a run works on.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// Scheduler runs a RecurringProcessor on a fixed interval.
type Scheduler struct {
	processor *RecurringProcessor
	refresher Refresher
	config    SchedulerConfig
	now       func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler. refresher may be nil.
func NewScheduler(processor *RecurringProcessor, refresher Refresher, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	return &Scheduler{
		processor: processor,
		refresher: refresher,
		config:    config,
		now:       time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("recurring scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Recurring scheduler started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Recurring scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Process immediately on startup
	s.RunOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes the records and processes what is due now.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if s.refresher != nil {
		if err := s.refresher.RefreshAll(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to refresh records before processing", "error", err)
			return 0, err
		}
	}
	n, err := s.processor.ProcessDue(ctx, s.now())
	if err != nil {
		slog.ErrorContext(ctx, "Recurring processing failed", "error", err)
	}
	return n, err
}
