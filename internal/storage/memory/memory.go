// Package memory is an in-process persistence backend. It keeps every
// table in memory, enforces the same cascades as the SQLite schema and is
// the default backend for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"taskfin/internal/core"
	"taskfin/internal/store"
)

type table[T any] struct {
	rows  []T
	id    func(T) string
	user  func(T) string
	clone func(T) T
}

type Store struct {
	mu           sync.Mutex
	tasks        *table[core.Task]
	lists        *table[core.TaskList]
	views        *table[core.CustomView]
	accounts     *table[core.Account]
	categories   *table[core.Category]
	transactions *table[core.Transaction]
	recurrences  *table[core.Recurrence]
	budgets      *table[core.Budget]
}

func identity[T any](v T) T { return v }

func New() *Store {
	return &Store{
		tasks: &table[core.Task]{
			id:    func(t core.Task) string { return t.ID },
			user:  func(t core.Task) string { return t.UserID },
			clone: core.Task.Clone,
		},
		lists: &table[core.TaskList]{
			id:    func(l core.TaskList) string { return l.ID },
			user:  func(l core.TaskList) string { return l.UserID },
			clone: identity[core.TaskList],
		},
		views: &table[core.CustomView]{
			id:    func(v core.CustomView) string { return v.ID },
			user:  func(v core.CustomView) string { return v.UserID },
			clone: identity[core.CustomView],
		},
		accounts: &table[core.Account]{
			id:    func(a core.Account) string { return a.ID },
			user:  func(a core.Account) string { return a.UserID },
			clone: identity[core.Account],
		},
		categories: &table[core.Category]{
			id:    func(c core.Category) string { return c.ID },
			user:  func(c core.Category) string { return c.UserID },
			clone: identity[core.Category],
		},
		transactions: &table[core.Transaction]{
			id:    func(t core.Transaction) string { return t.ID },
			user:  func(t core.Transaction) string { return t.UserID },
			clone: identity[core.Transaction],
		},
		recurrences: &table[core.Recurrence]{
			id:    func(r core.Recurrence) string { return r.ID },
			user:  func(r core.Recurrence) string { return r.UserID },
			clone: identity[core.Recurrence],
		},
		budgets: &table[core.Budget]{
			id:    func(b core.Budget) string { return b.ID },
			user:  func(b core.Budget) string { return b.UserID },
			clone: identity[core.Budget],
		},
	}
}

// repo exposes one table through store.Repository. onDelete runs under the
// store lock after a row is removed and implements cascades.
type repo[T any] struct {
	s        *Store
	t        *table[T]
	validate func(T) error
	onDelete func(userID, id string)
}

func (r repo[T]) List(ctx context.Context, userID string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]T, 0, len(r.t.rows))
	for _, row := range r.t.rows {
		if r.t.user(row) == userID {
			out = append(out, r.t.clone(row))
		}
	}
	return out, nil
}

func (r repo[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := r.validate(item); err != nil {
		return zero, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := r.t.id(item)
	for _, row := range r.t.rows {
		if r.t.id(row) == id {
			return zero, store.Permanent(fmt.Errorf("duplicate id %q", id))
		}
	}
	r.t.rows = append(r.t.rows, r.t.clone(item))
	return r.t.clone(item), nil
}

func (r repo[T]) Update(ctx context.Context, item T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := r.validate(item); err != nil {
		return zero, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, user := r.t.id(item), r.t.user(item)
	for i, row := range r.t.rows {
		if r.t.id(row) == id && r.t.user(row) == user {
			r.t.rows[i] = r.t.clone(item)
			return r.t.clone(item), nil
		}
	}
	return zero, core.ErrNotFound
}

func (r repo[T]) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, row := range r.t.rows {
		if r.t.id(row) == id && r.t.user(row) == userID {
			r.t.rows = append(r.t.rows[:i:i], r.t.rows[i+1:]...)
			if r.onDelete != nil {
				r.onDelete(userID, id)
			}
			return nil
		}
	}
	return core.ErrNotFound
}

func removeWhere[T any](t *table[T], fn func(T) bool) {
	kept := t.rows[:0:0]
	for _, row := range t.rows {
		if !fn(row) {
			kept = append(kept, row)
		}
	}
	t.rows = kept
}

func updateWhere[T any](t *table[T], fn func(*T)) {
	for i := range t.rows {
		fn(&t.rows[i])
	}
}

func clearRef(p **string, id string) {
	if *p != nil && **p == id {
		*p = nil
	}
}

func (s *Store) Tasks() store.Repository[core.Task] {
	return repo[core.Task]{s: s, t: s.tasks, validate: core.Task.Validate}
}

func (s *Store) Lists() store.Repository[core.TaskList] {
	return repo[core.TaskList]{s: s, t: s.lists, validate: core.TaskList.Validate,
		onDelete: func(userID, id string) {
			removeWhere(s.tasks, func(t core.Task) bool { return t.UserID == userID && t.ListID == id })
		}}
}

func (s *Store) Views() store.Repository[core.CustomView] {
	return repo[core.CustomView]{s: s, t: s.views, validate: core.CustomView.Validate}
}

func (s *Store) Accounts() store.Repository[core.Account] {
	return repo[core.Account]{s: s, t: s.accounts, validate: core.Account.Validate,
		onDelete: func(userID, id string) {
			removeWhere(s.transactions, func(t core.Transaction) bool {
				return t.UserID == userID && (t.AccountID == id || (t.DestinationAccountID != nil && *t.DestinationAccountID == id))
			})
			removeWhere(s.recurrences, func(r core.Recurrence) bool { return r.UserID == userID && r.AccountID == id })
		}}
}

func (s *Store) Categories() store.Repository[core.Category] {
	return repo[core.Category]{s: s, t: s.categories, validate: core.Category.Validate,
		onDelete: func(userID, id string) {
			removeWhere(s.budgets, func(b core.Budget) bool { return b.UserID == userID && b.CategoryID == id })
			updateWhere(s.categories, func(c *core.Category) { clearRef(&c.ParentID, id) })
			updateWhere(s.transactions, func(t *core.Transaction) { clearRef(&t.CategoryID, id) })
			updateWhere(s.recurrences, func(r *core.Recurrence) { clearRef(&r.CategoryID, id) })
		}}
}

func (s *Store) Transactions() store.Repository[core.Transaction] {
	return repo[core.Transaction]{s: s, t: s.transactions, validate: core.Transaction.Validate}
}

func (s *Store) Recurrences() store.Repository[core.Recurrence] {
	return repo[core.Recurrence]{s: s, t: s.recurrences, validate: core.Recurrence.Validate}
}

func (s *Store) Budgets() store.Repository[core.Budget] {
	return repo[core.Budget]{s: s, t: s.budgets, validate: core.Budget.Validate}
}
