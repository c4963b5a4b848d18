package store

import (
	"time"

	"taskfin/internal/core"
)

// Patches carry only the fields to change. A nil field is left alone.
// Clear* flags reset optional fields to empty.

type TaskPatch struct {
	Title        *string          `json:"title,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Priority     *core.Priority   `json:"priority,omitempty"`
	Status       *core.TaskStatus `json:"status,omitempty"`
	ListID       *string          `json:"list_id,omitempty"`
	Tags         *[]string        `json:"tags,omitempty"`
	DueDate      *core.Date       `json:"due_date,omitempty"`
	ClearDueDate bool             `json:"clear_due_date,omitempty"`
	Link         *string          `json:"link,omitempty"`
	Photos       *[]string        `json:"photos,omitempty"`
	Subtasks     *[]core.Subtask  `json:"subtasks,omitempty"`
}

func (p TaskPatch) apply(t core.Task, now time.Time) core.Task {
	t = t.Clone()
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ListID != nil {
		t.ListID = *p.ListID
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Link != nil {
		t.Link = *p.Link
	}
	if p.Photos != nil {
		t.Photos = append([]string(nil), (*p.Photos)...)
	}
	if p.Subtasks != nil {
		t.Subtasks = append([]core.Subtask(nil), (*p.Subtasks)...)
	}
	if p.Status != nil {
		t.SetStatus(*p.Status, now)
	}
	t.UpdatedAt = now
	return t
}

type ListPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

func (p ListPatch) apply(l core.TaskList) core.TaskList {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	return l
}

type AccountPatch struct {
	Name           *string           `json:"name,omitempty"`
	Type           *core.AccountType `json:"type,omitempty"`
	OpeningBalance *core.Money       `json:"opening_balance,omitempty"`
	Currency       *string           `json:"currency,omitempty"`
	Color          *string           `json:"color,omitempty"`
	Archived       *bool             `json:"archived,omitempty"`
}

func (p AccountPatch) apply(a core.Account) core.Account {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.OpeningBalance != nil {
		a.OpeningBalance = *p.OpeningBalance
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.Archived != nil {
		a.Archived = *p.Archived
	}
	return a
}

type TransactionPatch struct {
	Date          *core.Date              `json:"date,omitempty"`
	AccountID     *string                 `json:"account_id,omitempty"`
	Amount        *core.Money             `json:"amount,omitempty"`
	Type          *core.TransactionType   `json:"type,omitempty"`
	CategoryID    *string                 `json:"category_id,omitempty"`
	ClearCategory bool                    `json:"clear_category,omitempty"`
	Description   *string                 `json:"description,omitempty"`
	Tags          *string                 `json:"tags,omitempty"`
	Status        *core.TransactionStatus `json:"status,omitempty"`
}

func (p TransactionPatch) apply(t core.Transaction) core.Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.ClearCategory {
		t.CategoryID = nil
	} else if p.CategoryID != nil {
		id := *p.CategoryID
		t.CategoryID = &id
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Tags != nil {
		t.Tags = core.JoinTags(core.SplitTags(*p.Tags))
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

type RecurrencePatch struct {
	Frequency      *core.Frequency `json:"frequency,omitempty"`
	IntervalDays   *int            `json:"interval_days,omitempty"`
	BaseDay        *int            `json:"base_day,omitempty"`
	NextOccurrence *core.Date      `json:"next_occurrence,omitempty"`
	Amount         *core.Money     `json:"amount,omitempty"`
	AccountID      *string         `json:"account_id,omitempty"`
	CategoryID     *string         `json:"category_id,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Active         *bool           `json:"active,omitempty"`
}

func (p RecurrencePatch) apply(r core.Recurrence) core.Recurrence {
	if p.Frequency != nil {
		r.Frequency = *p.Frequency
	}
	if p.IntervalDays != nil {
		r.IntervalDays = *p.IntervalDays
	}
	if p.BaseDay != nil {
		r.BaseDay = *p.BaseDay
	}
	if p.NextOccurrence != nil {
		r.NextOccurrence = *p.NextOccurrence
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.AccountID != nil {
		r.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		id := *p.CategoryID
		r.CategoryID = &id
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
	return r
}

type BudgetPatch struct {
	Planned        *core.Money `json:"planned,omitempty"`
	YearMonth      *string     `json:"year_month,omitempty"`
	AlertThreshold *int        `json:"alert_threshold,omitempty"`
}

func (p BudgetPatch) apply(b core.Budget) core.Budget {
	if p.Planned != nil {
		b.Planned = *p.Planned
	}
	if p.YearMonth != nil {
		b.YearMonth = *p.YearMonth
	}
	if p.AlertThreshold != nil {
		b.AlertThreshold = *p.AlertThreshold
	}
	return b
}
