package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"taskfin/internal/core"
	"taskfin/internal/store"
)

func (r *SQLiteRepository) Tasks() store.Repository[core.Task] {
	return table[core.Task]{
		db:   r.db,
		name: "tasks",
		columns: []string{"id", "user_id", "title", "description", "priority", "status", "list_id",
			"tags", "due_date", "completed_at", "link", "photos", "created_at", "updated_at"},
		values: func(t core.Task) ([]any, error) {
			tags, err := encodeStrings(t.Tags)
			if err != nil {
				return nil, err
			}
			photos, err := encodeStrings(t.Photos)
			if err != nil {
				return nil, err
			}
			return []any{t.ID, t.UserID, t.Title, t.Description, string(t.Priority), string(t.Status), t.ListID,
				tags, nullDate(t.DueDate), nullTime(t.CompletedAt), t.Link, photos,
				formatTime(t.CreatedAt), formatTime(t.UpdatedAt)}, nil
		},
		scan: func(s scanner) (core.Task, error) {
			var (
				t                    core.Task
				priority, status     string
				tags, photos         string
				due, completed       sql.NullString
				createdAt, updatedAt string
			)
			err := s.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &priority, &status, &t.ListID,
				&tags, &due, &completed, &t.Link, &photos, &createdAt, &updatedAt)
			if err != nil {
				return t, err
			}
			t.Priority, t.Status = core.Priority(priority), core.TaskStatus(status)
			if t.Tags, err = decodeStrings(tags); err != nil {
				return t, err
			}
			if t.Photos, err = decodeStrings(photos); err != nil {
				return t, err
			}
			if t.DueDate, err = parseNullDate(due); err != nil {
				return t, err
			}
			if t.CompletedAt, err = parseNullTime(completed); err != nil {
				return t, err
			}
			if t.CreatedAt, err = parseTime(createdAt); err != nil {
				return t, err
			}
			t.UpdatedAt, err = parseTime(updatedAt)
			return t, err
		},
		key:        func(t core.Task) (string, string) { return t.ID, t.UserID },
		validate:   core.Task.Validate,
		afterWrite: writeSubtasks,
		load:       loadSubtasks,
	}
}

func writeSubtasks(ctx context.Context, tx *sql.Tx, t core.Task) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM subtasks WHERE task_id = ?", t.ID); err != nil {
		return fmt.Errorf("clear subtasks: %w", err)
	}
	for i, st := range t.Subtasks {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO subtasks (id, task_id, position, title, completed) VALUES (?, ?, ?, ?, ?)",
			st.ID, t.ID, i, st.Title, st.Completed)
		if err != nil {
			return fmt.Errorf("insert subtask %s: %w", st.ID, classify(err))
		}
	}
	return nil
}

func loadSubtasks(ctx context.Context, db *sql.DB, userID string, tasks []core.Task) error {
	rows, err := db.QueryContext(ctx, `
		SELECT s.id, s.task_id, s.title, s.completed
		FROM subtasks s JOIN tasks t ON t.id = s.task_id
		WHERE t.user_id = ?
		ORDER BY s.task_id, s.position`, userID)
	if err != nil {
		return fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	byTask := make(map[string][]core.Subtask)
	for rows.Next() {
		var st core.Subtask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &st.Completed); err != nil {
			return fmt.Errorf("scan subtask: %w", err)
		}
		byTask[st.TaskID] = append(byTask[st.TaskID], st)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list subtasks: %w", err)
	}
	for i := range tasks {
		tasks[i].Subtasks = byTask[tasks[i].ID]
	}
	return nil
}

func (r *SQLiteRepository) Lists() store.Repository[core.TaskList] {
	return table[core.TaskList]{
		db:      r.db,
		name:    "task_lists",
		columns: []string{"id", "user_id", "name", "color"},
		values: func(l core.TaskList) ([]any, error) {
			return []any{l.ID, l.UserID, l.Name, l.Color}, nil
		},
		scan: func(s scanner) (core.TaskList, error) {
			var l core.TaskList
			err := s.Scan(&l.ID, &l.UserID, &l.Name, &l.Color)
			return l, err
		},
		key:      func(l core.TaskList) (string, string) { return l.ID, l.UserID },
		validate: core.TaskList.Validate,
	}
}

func (r *SQLiteRepository) Views() store.Repository[core.CustomView] {
	return table[core.CustomView]{
		db:      r.db,
		name:    "custom_views",
		columns: []string{"id", "user_id", "name", "icon", "color", "filter"},
		values: func(v core.CustomView) ([]any, error) {
			filter, err := json.Marshal(v.Filter)
			if err != nil {
				return nil, fmt.Errorf("encode filter: %w", err)
			}
			return []any{v.ID, v.UserID, v.Name, v.Icon, v.Color, string(filter)}, nil
		},
		scan: func(s scanner) (core.CustomView, error) {
			var (
				v      core.CustomView
				filter string
			)
			if err := s.Scan(&v.ID, &v.UserID, &v.Name, &v.Icon, &v.Color, &filter); err != nil {
				return v, err
			}
			if err := json.Unmarshal([]byte(filter), &v.Filter); err != nil {
				return v, fmt.Errorf("decode filter of view %s: %w", v.ID, err)
			}
			return v, nil
		},
		key:      func(v core.CustomView) (string, string) { return v.ID, v.UserID },
		validate: core.CustomView.Validate,
	}
}

func (r *SQLiteRepository) Accounts() store.Repository[core.Account] {
	return table[core.Account]{
		db:      r.db,
		name:    "accounts",
		columns: []string{"id", "user_id", "name", "type", "opening_balance_cents", "currency", "color", "archived"},
		values: func(a core.Account) ([]any, error) {
			return []any{a.ID, a.UserID, a.Name, string(a.Type), a.OpeningBalance.Cents, a.Currency, a.Color, a.Archived}, nil
		},
		scan: func(s scanner) (core.Account, error) {
			var (
				a   core.Account
				typ string
			)
			err := s.Scan(&a.ID, &a.UserID, &a.Name, &typ, &a.OpeningBalance.Cents, &a.Currency, &a.Color, &a.Archived)
			a.Type = core.AccountType(typ)
			return a, err
		},
		key:      func(a core.Account) (string, string) { return a.ID, a.UserID },
		validate: core.Account.Validate,
	}
}

func (r *SQLiteRepository) Categories() store.Repository[core.Category] {
	return table[core.Category]{
		db:      r.db,
		name:    "categories",
		columns: []string{"id", "user_id", "name", "type", "parent_id"},
		values: func(c core.Category) ([]any, error) {
			return []any{c.ID, c.UserID, c.Name, string(c.Type), nullString(c.ParentID)}, nil
		},
		scan: func(s scanner) (core.Category, error) {
			var (
				c      core.Category
				typ    string
				parent sql.NullString
			)
			err := s.Scan(&c.ID, &c.UserID, &c.Name, &typ, &parent)
			c.Type = core.CategoryType(typ)
			c.ParentID = stringPtr(parent)
			return c, err
		},
		key:      func(c core.Category) (string, string) { return c.ID, c.UserID },
		validate: core.Category.Validate,
	}
}

func (r *SQLiteRepository) Transactions() store.Repository[core.Transaction] {
	return table[core.Transaction]{
		db:   r.db,
		name: "transactions",
		columns: []string{"id", "user_id", "date", "account_id", "destination_account_id", "amount_cents",
			"type", "category_id", "description", "tags", "status", "meta"},
		values: func(t core.Transaction) ([]any, error) {
			meta, err := json.Marshal(t.Meta)
			if err != nil {
				return nil, fmt.Errorf("encode meta: %w", err)
			}
			return []any{t.ID, t.UserID, t.Date.String(), t.AccountID, nullString(t.DestinationAccountID),
				t.Amount.Cents, string(t.Type), nullString(t.CategoryID), t.Description, t.Tags,
				string(t.Status), string(meta)}, nil
		},
		scan: func(s scanner) (core.Transaction, error) {
			var (
				t                 core.Transaction
				date, typ, status string
				meta              string
				dest, category    sql.NullString
			)
			err := s.Scan(&t.ID, &t.UserID, &date, &t.AccountID, &dest, &t.Amount.Cents,
				&typ, &category, &t.Description, &t.Tags, &status, &meta)
			if err != nil {
				return t, err
			}
			if t.Date, err = core.ParseDate(date); err != nil {
				return t, err
			}
			t.Type, t.Status = core.TransactionType(typ), core.TransactionStatus(status)
			t.DestinationAccountID, t.CategoryID = stringPtr(dest), stringPtr(category)
			if err := json.Unmarshal([]byte(meta), &t.Meta); err != nil {
				return t, fmt.Errorf("decode meta of transaction %s: %w", t.ID, err)
			}
			return t, nil
		},
		key:      func(t core.Transaction) (string, string) { return t.ID, t.UserID },
		validate: core.Transaction.Validate,
	}
}

func (r *SQLiteRepository) Recurrences() store.Repository[core.Recurrence] {
	return table[core.Recurrence]{
		db:   r.db,
		name: "recurrences",
		columns: []string{"id", "user_id", "type", "frequency", "interval_days", "base_day", "next_occurrence",
			"amount_cents", "account_id", "category_id", "description", "active"},
		values: func(rc core.Recurrence) ([]any, error) {
			return []any{rc.ID, rc.UserID, string(rc.Type), string(rc.Frequency), rc.IntervalDays, rc.BaseDay,
				rc.NextOccurrence.String(), rc.Amount.Cents, rc.AccountID, nullString(rc.CategoryID),
				rc.Description, rc.Active}, nil
		},
		scan: func(s scanner) (core.Recurrence, error) {
			var (
				rc             core.Recurrence
				typ, frequency string
				next           string
				category       sql.NullString
			)
			err := s.Scan(&rc.ID, &rc.UserID, &typ, &frequency, &rc.IntervalDays, &rc.BaseDay, &next,
				&rc.Amount.Cents, &rc.AccountID, &category, &rc.Description, &rc.Active)
			if err != nil {
				return rc, err
			}
			rc.Type, rc.Frequency = core.TransactionType(typ), core.Frequency(frequency)
			rc.CategoryID = stringPtr(category)
			rc.NextOccurrence, err = core.ParseDate(next)
			return rc, err
		},
		key:      func(rc core.Recurrence) (string, string) { return rc.ID, rc.UserID },
		validate: core.Recurrence.Validate,
	}
}

func (r *SQLiteRepository) Budgets() store.Repository[core.Budget] {
	return table[core.Budget]{
		db:      r.db,
		name:    "budgets",
		columns: []string{"id", "user_id", "category_id", "planned_cents", "year_month", "alert_threshold"},
		values: func(b core.Budget) ([]any, error) {
			return []any{b.ID, b.UserID, b.CategoryID, b.Planned.Cents, b.YearMonth, b.AlertThreshold}, nil
		},
		scan: func(s scanner) (core.Budget, error) {
			var b core.Budget
			err := s.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Planned.Cents, &b.YearMonth, &b.AlertThreshold)
			return b, err
		},
		key:      func(b core.Budget) (string, string) { return b.ID, b.UserID },
		validate: core.Budget.Validate,
	}
}

func encodeStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(s string) ([]string, error) {
	var out []string
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullDate(d *core.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(ns sql.NullString) (*core.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := core.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
