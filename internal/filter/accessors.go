package filter

import (
	"cmp"
	"time"

	"taskfin/internal/core"
)

// TaskAccessor reads tasks: due date, list ownership, priority as kind.
var TaskAccessor = Accessor[core.Task]{
	Date: func(t core.Task, loc *time.Location) (time.Time, bool) {
		if t.DueDate == nil || t.DueDate.IsZero() {
			return time.Time{}, false
		}
		return t.DueDate.At(loc), true
	},
	Done:  core.Task.IsDone,
	Owner: func(t core.Task) string { return t.ListID },
	Kind:  func(t core.Task) string { return string(t.Priority) },
	Tags:  func(t core.Task) []string { return t.Tags },
	Text: func(t core.Task) []string {
		fields := make([]string, 0, 2+len(t.Tags)+len(t.Subtasks))
		fields = append(fields, t.Title, t.Description)
		fields = append(fields, t.Tags...)
		for _, st := range t.Subtasks {
			fields = append(fields, st.Title)
		}
		return fields
	},
	Compare: map[core.SortKey]func(a, b core.Task) int{
		core.SortPriority: func(a, b core.Task) int { return cmp.Compare(a.Priority.Rank(), b.Priority.Rank()) },
		core.SortTitle:    func(a, b core.Task) int { return compareFold(a.Title, b.Title) },
		core.SortCreated:  func(a, b core.Task) int { return a.CreatedAt.Compare(b.CreatedAt) },
	},
}

// TransactionAccessor reads transactions: booking date, owning account,
// type as kind, cleared as the terminal status.
var TransactionAccessor = Accessor[core.Transaction]{
	Date: func(t core.Transaction, loc *time.Location) (time.Time, bool) {
		if t.Date.IsZero() {
			return time.Time{}, false
		}
		return t.Date.At(loc), true
	},
	Done:  core.Transaction.IsCleared,
	Owner: func(t core.Transaction) string { return t.AccountID },
	Kind:  func(t core.Transaction) string { return string(t.Type) },
	Tags:  core.Transaction.TagList,
	Text: func(t core.Transaction) []string {
		return append([]string{t.Description}, t.TagList()...)
	},
	Compare: map[core.SortKey]func(a, b core.Transaction) int{
		core.SortAmount:       func(a, b core.Transaction) int { return cmp.Compare(a.Amount.Abs().Cents, b.Amount.Abs().Cents) },
		core.SortSignedAmount: func(a, b core.Transaction) int { return cmp.Compare(a.Amount.Cents, b.Amount.Cents) },
		core.SortTitle:        func(a, b core.Transaction) int { return compareFold(a.Description, b.Description) },
	},
}
