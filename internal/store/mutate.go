package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskfin/internal/core"
	applog "taskfin/internal/log"
)

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsRetryable reports whether a failed collaborator call may succeed if
// repeated. Validation, missing records and cancellation never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var p permanentError
	switch {
	case errors.As(err, &p),
		core.IsValidation(err),
		errors.Is(err, core.ErrNotFound),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// Backoff returns the wait before retry number attempt (0-based): base
// doubled per attempt, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// call runs fn against the collaborator with the store's timeout and retry
// policy. The table is reported in flight for the whole call.
func (s *Store) call(ctx context.Context, table Table, op string, fn func(ctx context.Context) error) error {
	s.begin(table)
	defer s.end(table)

	var err error
	for attempt := 0; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		err = fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt >= s.cfg.MaxRetries || ctx.Err() != nil || !IsRetryable(err) {
			break
		}
		wait := Backoff(attempt, s.cfg.BaseBackoff, s.cfg.MaxBackoff)
		slog.WarnContext(ctx, "Persistence call failed, retrying",
			"table", table,
			"op", op,
			"attempt", attempt+1,
			"backoff", wait,
			"error", err)
		if serr := s.sleep(ctx, wait); serr != nil {
			break
		}
	}

	slog.ErrorContext(ctx, "Persistence call failed",
		"table", table,
		"op", op,
		"error", err)
	return fmt.Errorf("%s %s: %w", op, table, err)
}

// mutate is call for operations that return the confirmed record.
func mutate[T any](ctx context.Context, s *Store, table Table, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.call(ctx, table, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// confirmed runs after every successful mutation.
func (s *Store) confirmed(ctx context.Context, table Table, op, id string) {
	applog.NewStructuredLogger(applog.FromContext(ctx).With(applog.FieldUserID, s.cfg.UserID)).
		LogMutation(ctx, applog.ComponentStore, op, string(table), id)
	s.autosave(ctx)
}
