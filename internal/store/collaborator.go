package store

import (
	"context"
	"time"

	"taskfin/internal/core"
)

// Table names a collection of the persistence collaborator.
type Table string

const (
	TableTasks        Table = "tasks"
	TableLists        Table = "task_lists"
	TableViews        Table = "custom_views"
	TableAccounts     Table = "accounts"
	TableCategories   Table = "categories"
	TableTransactions Table = "transactions"
	TableRecurrences  Table = "recurrences"
	TableBudgets      Table = "budgets"
)

// Tables lists every collection in refresh order.
var Tables = []Table{
	TableLists, TableTasks, TableViews,
	TableAccounts, TableCategories, TableTransactions, TableRecurrences, TableBudgets,
}

func (t Table) Valid() bool {
	for _, known := range Tables {
		if t == known {
			return true
		}
	}
	return false
}

// Change signals that something in Table changed for UserID. It carries
// no payload; receivers re-fetch the table.
type Change struct {
	Table  Table     `json:"table"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"timestamp"`
}

// Repository is the CRUD surface of one collaborator table. Create and
// Update return the record as persisted.
type Repository[T any] interface {
	List(ctx context.Context, userID string) ([]T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, userID, id string) error
}

// Repositories groups the per-table CRUD surfaces of a backend.
type Repositories interface {
	Tasks() Repository[core.Task]
	Lists() Repository[core.TaskList]
	Views() Repository[core.CustomView]
	Accounts() Repository[core.Account]
	Categories() Repository[core.Category]
	Transactions() Repository[core.Transaction]
	Recurrences() Repository[core.Recurrence]
	Budgets() Repository[core.Budget]
}

// Subscriber delivers change notifications. Subscribe registers fn for
// userID and returns once registered; delivery stops when ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string, fn func(Change)) error
}

// Collaborator is the external persistence service the store mirrors.
type Collaborator interface {
	Repositories
	Subscriber
}
