package store

import (
	"time"

	"taskfin/internal/cache"
	"taskfin/internal/core"
	"taskfin/internal/filter"
	"taskfin/internal/summary"
)

// Tasks derives the task view for spec. Results are memoized per
// collection version, spec and calendar day.
func (s *Store) Tasks(spec core.FilterSpec) []core.Task {
	col := snapshot(s, &s.tasks)
	now := s.now()
	key := cache.MemoKey(col.Version, spec.Key(), now.Format(core.DateLayout))
	view := s.taskViews.Get(key, func() []core.Task {
		return filter.Apply(col.Items, spec, filter.TaskAccessor, now)
	})
	return cloneRecords(view)
}

// Transactions derives the transaction view for spec.
func (s *Store) Transactions(spec core.FilterSpec) []core.Transaction {
	col := snapshot(s, &s.transactions)
	now := s.now()
	key := cache.MemoKey(col.Version, spec.Key(), now.Format(core.DateLayout))
	view := s.txViews.Get(key, func() []core.Transaction {
		return filter.Apply(col.Items, spec, filter.TransactionAccessor, now)
	})
	return cloneRecords(view)
}

// TaskGroups derives the task view for spec grouped by due-date bucket.
func (s *Store) TaskGroups(spec core.FilterSpec) []filter.Group[core.Task] {
	return filter.GroupByBucket(s.Tasks(spec), filter.TaskAccessor, s.now())
}

// TaskCounts holds the sidebar counters.
type TaskCounts struct {
	All       int                   `json:"all"`
	Today     int                   `json:"today"`
	Week      int                   `json:"week"`
	Overdue   int                   `json:"overdue"`
	Completed int                   `json:"completed"`
	Buckets   map[filter.Bucket]int `json:"buckets"`
}

// Counts computes the sidebar counters over pending tasks.
func (s *Store) Counts() TaskCounts {
	tasks := s.AllTasks()
	now := s.now()
	pending := core.FilterSpec{Status: core.StatusPending}
	count := func(spec core.FilterSpec) int {
		return filter.Count(tasks, spec, filter.TaskAccessor, now)
	}
	withRange := func(r core.DateRange) core.FilterSpec {
		spec := pending
		spec.DateRange = r
		return spec
	}
	return TaskCounts{
		All:       count(pending),
		Today:     count(withRange(core.RangeToday)),
		Week:      count(withRange(core.RangeWeek)),
		Overdue:   count(withRange(core.RangeOverdue)),
		Completed: count(core.FilterSpec{Status: core.StatusCompleted}),
		Buckets:   filter.CountBuckets(filter.Apply(tasks, pending, filter.TaskAccessor, now), filter.TaskAccessor, now),
	}
}

// ViewTasks derives the tasks of a saved custom view.
func (s *Store) ViewTasks(id string) ([]core.Task, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	return s.Tasks(v.Filter), nil
}

func (s *Store) Balances() []summary.AccountBalance {
	return summary.Balances(s.Accounts(), s.AllTransactions())
}

func (s *Store) Balance(accountID string) (core.Money, error) {
	a, err := s.Account(accountID)
	if err != nil {
		return core.Money{}, err
	}
	return summary.Balance(a, s.AllTransactions()), nil
}

func (s *Store) BudgetStatuses(yearMonth string) []summary.BudgetStatus {
	return summary.Budgets(s.Budgets(), s.AllTransactions(), yearMonth)
}

func (s *Store) Progress() summary.Progress {
	return summary.TaskProgress(s.AllTasks())
}

func (s *Store) ProgressByList() []summary.ListProgress {
	return summary.TaskProgressByList(s.Lists(), s.AllTasks())
}

func (s *Store) Upcoming(days int) []core.Recurrence {
	return summary.UpcomingRecurrences(s.Recurrences(), s.now(), days)
}

func (s *Store) MonthOverview(year, month int) summary.MonthOverview {
	return summary.Overview(s.AllTransactions(), s.Categories(), year, month)
}

// Today is the store's notion of the current calendar day.
func (s *Store) Today() core.Date {
	return core.DateOf(s.now())
}

// Now exposes the store clock to services sharing it.
func (s *Store) Now() time.Time { return s.now() }
