package backend

import (
	"context"
	"log/slog"
	"time"

	"taskfin/internal/core"
	"taskfin/internal/store"
)

// publishing wraps a repository so that every successful write announces
// a change on its table. A failed publish is logged and never fails the
// write itself.
type publishing[T any] struct {
	inner  store.Repository[T]
	table  store.Table
	n      Notifier
	userOf func(T) string
}

func (p publishing[T]) List(ctx context.Context, userID string) ([]T, error) {
	return p.inner.List(ctx, userID)
}

func (p publishing[T]) Create(ctx context.Context, item T) (T, error) {
	out, err := p.inner.Create(ctx, item)
	if err == nil {
		p.announce(ctx, p.userOf(out))
	}
	return out, err
}

func (p publishing[T]) Update(ctx context.Context, item T) (T, error) {
	out, err := p.inner.Update(ctx, item)
	if err == nil {
		p.announce(ctx, p.userOf(out))
	}
	return out, err
}

func (p publishing[T]) Delete(ctx context.Context, userID, id string) error {
	err := p.inner.Delete(ctx, userID, id)
	if err == nil {
		p.announce(ctx, userID)
	}
	return err
}

func (p publishing[T]) announce(ctx context.Context, userID string) {
	ch := store.Change{Table: p.table, UserID: userID, At: time.Now().UTC()}
	if err := p.n.Publish(ctx, ch); err != nil {
		slog.WarnContext(ctx, "Failed to publish change notification",
			"table", p.table,
			"user_id", userID,
			"error", err)
	}
}

// Collaborator joins a set of repositories with a notifier.
type Collaborator struct {
	repos store.Repositories
	n     Notifier
}

var _ store.Collaborator = (*Collaborator)(nil)

func Compose(repos store.Repositories, n Notifier) *Collaborator {
	return &Collaborator{repos: repos, n: n}
}

func wrap[T any](inner store.Repository[T], table store.Table, n Notifier, userOf func(T) string) store.Repository[T] {
	return publishing[T]{inner: inner, table: table, n: n, userOf: userOf}
}

func (c *Collaborator) Tasks() store.Repository[core.Task] {
	return wrap(c.repos.Tasks(), store.TableTasks, c.n, func(t core.Task) string { return t.UserID })
}

func (c *Collaborator) Lists() store.Repository[core.TaskList] {
	return wrap(c.repos.Lists(), store.TableLists, c.n, func(l core.TaskList) string { return l.UserID })
}

func (c *Collaborator) Views() store.Repository[core.CustomView] {
	return wrap(c.repos.Views(), store.TableViews, c.n, func(v core.CustomView) string { return v.UserID })
}

func (c *Collaborator) Accounts() store.Repository[core.Account] {
	return wrap(c.repos.Accounts(), store.TableAccounts, c.n, func(a core.Account) string { return a.UserID })
}

func (c *Collaborator) Categories() store.Repository[core.Category] {
	return wrap(c.repos.Categories(), store.TableCategories, c.n, func(cat core.Category) string { return cat.UserID })
}

func (c *Collaborator) Transactions() store.Repository[core.Transaction] {
	return wrap(c.repos.Transactions(), store.TableTransactions, c.n, func(t core.Transaction) string { return t.UserID })
}

func (c *Collaborator) Recurrences() store.Repository[core.Recurrence] {
	return wrap(c.repos.Recurrences(), store.TableRecurrences, c.n, func(r core.Recurrence) string { return r.UserID })
}

func (c *Collaborator) Budgets() store.Repository[core.Budget] {
	return wrap(c.repos.Budgets(), store.TableBudgets, c.n, func(b core.Budget) string { return b.UserID })
}

func (c *Collaborator) Subscribe(ctx context.Context, userID string, fn func(store.Change)) error {
	return c.n.Subscribe(ctx, userID, fn)
}

// Publish announces a change that did not go through a repository, for
// example one made by another process.
func (c *Collaborator) Publish(ctx context.Context, ch store.Change) error {
	return c.n.Publish(ctx, ch)
}
