// Package store mirrors one user's records from the persistence
// collaborator. Each collection is replaced as a whole, never patched in
// place, so readers always see a consistent snapshot. Mutations wait for
// the collaborator to confirm before touching local state.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"taskfin/internal/cache"
	"taskfin/internal/core"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNoUser        = errors.New("store requires a user id")
)

// Config tunes the mutation protocol and derivation memo.
type Config struct {
	UserID         string
	RequestTimeout time.Duration
	MaxRetries     int
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	UndoWindow     time.Duration
	CacheSize      int
	// SnapshotPath, when set, is rewritten after every confirmed mutation.
	SnapshotPath string
	Now          func() time.Time
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.UndoWindow <= 0 {
		c.UndoWindow = 10 * time.Second
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 64
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Collection is an immutable snapshot of one table. Version changes every
// time the collection is replaced.
type Collection[T any] struct {
	Items   []T
	Version uint64
}

type deletedTask struct {
	task    core.Task
	expires time.Time
}

type Store struct {
	collab Collaborator
	cfg    Config

	mu           sync.RWMutex
	version      uint64
	lists        Collection[core.TaskList]
	tasks        Collection[core.Task]
	views        Collection[core.CustomView]
	accounts     Collection[core.Account]
	categories   Collection[core.Category]
	transactions Collection[core.Transaction]
	recurrences  Collection[core.Recurrence]
	budgets      Collection[core.Budget]
	filters      map[string]core.FilterSpec
	lastDeleted  *deletedTask

	inflightMu sync.Mutex
	inflight   map[Table]int

	refreshMu  sync.Mutex
	refreshing map[Table]*refreshRun

	taskViews *cache.Memo[[]core.Task]
	txViews   *cache.Memo[[]core.Transaction]

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an empty store for cfg.UserID. Call RefreshAll to load it.
func New(collab Collaborator, cfg Config) (*Store, error) {
	if cfg.UserID == "" {
		return nil, ErrNoUser
	}
	cfg = cfg.withDefaults()
	return &Store{
		collab:     collab,
		cfg:        cfg,
		filters:    make(map[string]core.FilterSpec),
		inflight:   make(map[Table]int),
		refreshing: make(map[Table]*refreshRun),
		taskViews:  cache.NewMemo[[]core.Task](cache.NewLRUCache[[]core.Task](cfg.CacheSize, 0)),
		txViews:    cache.NewMemo[[]core.Transaction](cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, 0)),
		sleep:      sleepCtx,
	}, nil
}

func (s *Store) UserID() string { return s.cfg.UserID }

func (s *Store) now() time.Time { return s.cfg.Now() }

// InFlight reports whether a collaborator call for table is pending.
func (s *Store) InFlight(table Table) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	return s.inflight[table] > 0
}

func (s *Store) begin(table Table) {
	s.inflightMu.Lock()
	s.inflight[table]++
	s.inflightMu.Unlock()
}

func (s *Store) end(table Table) {
	s.inflightMu.Lock()
	s.inflight[table]--
	s.inflightMu.Unlock()
}

// replace installs items as the new snapshot of c. Caller holds s.mu.
func replace[T any](s *Store, c *Collection[T], items []T) {
	s.version++
	c.Items = items
	c.Version = s.version
}

// put inserts or replaces item by id, copying the slice. Caller holds s.mu.
func put[T any](s *Store, c *Collection[T], item T, idOf func(T) string) {
	item = cloneRecord(item)
	id := idOf(item)
	items := make([]T, 0, len(c.Items)+1)
	replaced := false
	for _, it := range c.Items {
		if idOf(it) == id {
			items = append(items, item)
			replaced = true
			continue
		}
		items = append(items, it)
	}
	if !replaced {
		items = append(items, item)
	}
	replace(s, c, items)
}

// drop removes every record matching fn. Caller holds s.mu.
func drop[T any](s *Store, c *Collection[T], fn func(T) bool) {
	if !slices.ContainsFunc(c.Items, fn) {
		return
	}
	items := make([]T, 0, len(c.Items))
	for _, it := range c.Items {
		if !fn(it) {
			items = append(items, it)
		}
	}
	replace(s, c, items)
}

// rewrite applies fn to every record, replacing the collection if any
// record changed. Caller holds s.mu.
func rewrite[T any](s *Store, c *Collection[T], fn func(T) (T, bool)) {
	var items []T
	for i, it := range c.Items {
		updated, changed := fn(it)
		if !changed {
			continue
		}
		if items == nil {
			items = slices.Clone(c.Items)
		}
		items[i] = updated
	}
	if items != nil {
		replace(s, c, items)
	}
}

func find[T any](items []T, id string, idOf func(T) string) (T, bool) {
	for _, it := range items {
		if idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// cloneRecord deep-copies records that carry slices or pointers so no
// caller can reach memory owned by a collection.
func cloneRecord[T any](item T) T {
	if c, ok := any(item).(interface{ Clone() T }); ok {
		return c.Clone()
	}
	return item
}

func cloneRecords[T any](items []T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = cloneRecord(it)
	}
	return out
}

// snapshot returns the collection without copying. Its items must only
// be read.
func snapshot[T any](s *Store, c *Collection[T]) Collection[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *c
}

func read[T any](s *Store, c *Collection[T]) Collection[T] {
	col := snapshot(s, c)
	col.Items = cloneRecords(col.Items)
	return col
}

func lookup[T any](s *Store, c *Collection[T], id string, idOf func(T) string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := find(c.Items, id, idOf)
	if !ok {
		return item, core.ErrNotFound
	}
	return cloneRecord(item), nil
}

func taskID(t core.Task) string { return t.ID }
func listID(l core.TaskList) string { return l.ID }
func viewID(v core.CustomView) string { return v.ID }
func accountID(a core.Account) string { return a.ID }
func categoryID(c core.Category) string { return c.ID }
func transactionID(t core.Transaction) string { return t.ID }
func recurrenceID(r core.Recurrence) string { return r.ID }
func budgetID(b core.Budget) string { return b.ID }

func (s *Store) AllTasks() []core.Task { return read(s, &s.tasks).Items }
func (s *Store) Lists() []core.TaskList { return read(s, &s.lists).Items }
func (s *Store) Views() []core.CustomView { return read(s, &s.views).Items }
func (s *Store) Accounts() []core.Account { return read(s, &s.accounts).Items }
func (s *Store) Categories() []core.Category { return read(s, &s.categories).Items }
func (s *Store) AllTransactions() []core.Transaction { return read(s, &s.transactions).Items }
func (s *Store) Recurrences() []core.Recurrence { return read(s, &s.recurrences).Items }
func (s *Store) Budgets() []core.Budget { return read(s, &s.budgets).Items }
func (s *Store) TaskCollection() Collection[core.Task] { return read(s, &s.tasks) }
func (s *Store) Task(id string) (core.Task, error) { return lookup(s, &s.tasks, id, taskID) }
func (s *Store) List(id string) (core.TaskList, error) { return lookup(s, &s.lists, id, listID) }
func (s *Store) View(id string) (core.CustomView, error) { return lookup(s, &s.views, id, viewID) }
func (s *Store) Account(id string) (core.Account, error) {
	return lookup(s, &s.accounts, id, accountID)
}
func (s *Store) Transaction(id string) (core.Transaction, error) {
	return lookup(s, &s.transactions, id, transactionID)
}
func (s *Store) Recurrence(id string) (core.Recurrence, error) {
	return lookup(s, &s.recurrences, id, recurrenceID)
}
func (s *Store) Budget(id string) (core.Budget, error) { return lookup(s, &s.budgets, id, budgetID) }

// SetFilter remembers a named filter (for example the active task filter)
// so it survives restarts through the snapshot.
func (s *Store) SetFilter(name string, spec core.FilterSpec) {
	s.mu.Lock()
	s.filters[name] = spec.Normalize()
	s.mu.Unlock()
}

// Filter returns a remembered filter, or the default one.
func (s *Store) Filter(name string) core.FilterSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if spec, ok := s.filters[name]; ok {
		return spec.Clone()
	}
	return core.DefaultFilter()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
