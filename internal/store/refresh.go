package store

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// maxFetchRaces bounds how often fetch re-reads a table because a local
// write landed while the read was in flight.
const maxFetchRaces = 3

// fetch loads a whole table and installs it in one step. Callers never see
// a half-applied refresh. A result read before a confirmed local write is
// discarded and read again, so it cannot roll that write back.
func fetch[T any](ctx context.Context, s *Store, table Table, repo Repository[T], c *Collection[T]) error {
	for attempt := 0; ; attempt++ {
		before := snapshot(s, c).Version
		var items []T
		err := s.call(ctx, table, "list", func(ctx context.Context) error {
			var err error
			items, err = repo.List(ctx, s.cfg.UserID)
			return err
		})
		if err != nil {
			return err
		}
		if items == nil {
			items = []T{}
		}
		s.mu.Lock()
		if c.Version == before {
			replace(s, c, items)
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()
		if attempt+1 >= maxFetchRaces {
			// The local collection already holds every confirmed write and
			// the next change notification triggers another refresh.
			slog.DebugContext(ctx, "Keeping local table after repeated concurrent writes", "table", table)
			return nil
		}
	}
}

// refreshRun is one leader's pass over a table. Requests arriving while it
// runs set dirty, and the leader fetches again before finishing.
type refreshRun struct {
	dirty bool
	done  chan struct{}
	err   error
}

// Refresh re-fetches one table. Concurrent requests share a run, but every
// request is answered by a fetch that started after it was made.
func (s *Store) Refresh(ctx context.Context, table Table) error {
	s.refreshMu.Lock()
	if run, ok := s.refreshing[table]; ok {
		run.dirty = true
		s.refreshMu.Unlock()
		slog.DebugContext(ctx, "Coalesced table refresh", "table", table)
		select {
		case <-run.done:
			return run.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	run := &refreshRun{done: make(chan struct{})}
	s.refreshing[table] = run
	s.refreshMu.Unlock()

	var err error
	for {
		err = s.refresh(ctx, table)
		s.refreshMu.Lock()
		if err != nil || !run.dirty {
			break
		}
		run.dirty = false
		s.refreshMu.Unlock()
	}
	run.err = err
	delete(s.refreshing, table)
	s.refreshMu.Unlock()
	close(run.done)
	return err
}

func (s *Store) refresh(ctx context.Context, table Table) error {
	switch table {
	case TableTasks:
		return fetch(ctx, s, table, s.collab.Tasks(), &s.tasks)
	case TableLists:
		return fetch(ctx, s, table, s.collab.Lists(), &s.lists)
	case TableViews:
		return fetch(ctx, s, table, s.collab.Views(), &s.views)
	case TableAccounts:
		return fetch(ctx, s, table, s.collab.Accounts(), &s.accounts)
	case TableCategories:
		return fetch(ctx, s, table, s.collab.Categories(), &s.categories)
	case TableTransactions:
		return fetch(ctx, s, table, s.collab.Transactions(), &s.transactions)
	case TableRecurrences:
		return fetch(ctx, s, table, s.collab.Recurrences(), &s.recurrences)
	case TableBudgets:
		return fetch(ctx, s, table, s.collab.Budgets(), &s.budgets)
	}
	return fmt.Errorf("unknown table %q", table)
}

// RefreshAll fetches every table in parallel and returns the first error.
func (s *Store) RefreshAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, table := range Tables {
		g.Go(func() error {
			return s.Refresh(ctx, table)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh all: %w", err)
	}
	slog.InfoContext(ctx, "Store loaded", "user_id", s.cfg.UserID)
	return nil
}

// Watch subscribes to change notifications for the store's user and
// re-fetches the affected table on each one until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	return s.collab.Subscribe(ctx, s.cfg.UserID, func(ch Change) {
		if ch.UserID != s.cfg.UserID || !ch.Table.Valid() {
			return
		}
		if err := s.Refresh(ctx, ch.Table); err != nil {
			slog.WarnContext(ctx, "Refresh after change failed", "table", ch.Table, "error", err)
		}
	})
}
