package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Priority   string
	TaskStatus string
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"

	TaskPending TaskStatus = "pending"
	TaskDone    TaskStatus = "done"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
)

// Rank orders priorities from low (0) to urgent (3). Unknown values rank -1.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return -1
}

func (p Priority) Valid() bool { return p.Rank() >= 0 }

func (s TaskStatus) Valid() bool { return s == TaskPending || s == TaskDone }

type (
	Task struct {
		ID          string     `json:"id"`
		UserID      string     `json:"user_id"`
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		Priority    Priority   `json:"priority"`
		Status      TaskStatus `json:"status"`
		ListID      string     `json:"list_id"`
		Tags        []string   `json:"tags"`
		DueDate     *Date      `json:"due_date,omitempty"`
		CompletedAt *time.Time `json:"completed_at,omitempty"`
		Link        string     `json:"link,omitempty"`
		Photos      []string   `json:"photos,omitempty"`
		Subtasks    []Subtask  `json:"subtasks,omitempty"`
		CreatedAt   time.Time  `json:"created_at"`
		UpdatedAt   time.Time  `json:"updated_at"`
	}

	Subtask struct {
		ID        string `json:"id"`
		TaskID    string `json:"task_id"`
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	}

	TaskList struct {
		ID     string `json:"id"`
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Color  string `json:"color,omitempty"`
	}

	// CustomView is a saved filter over tasks. It owns no tasks.
	CustomView struct {
		ID     string     `json:"id"`
		UserID string     `json:"user_id"`
		Name   string     `json:"name"`
		Icon   string     `json:"icon"`
		Color  string     `json:"color,omitempty"`
		Filter FilterSpec `json:"filter"`
	}
)

// IsDone reports whether the task reached its terminal status.
func (t Task) IsDone() bool { return t.Status == TaskDone }

// SetStatus moves the task to status and keeps CompletedAt in step with it.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	t.Status = status
	if status == TaskDone {
		if t.CompletedAt == nil {
			at := now
			t.CompletedAt = &at
		}
		return
	}
	t.CompletedAt = nil
}

// Normalize fills defaults, cleans tags and repairs the completed-at invariant.
func (t *Task) Normalize(now time.Time) {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
	t.Tags = NormalizeTags(t.Tags)
	t.SetStatus(t.Status, now)
	for i := range t.Subtasks {
		t.Subtasks[i].TaskID = t.ID
		t.Subtasks[i].Title = strings.TrimSpace(t.Subtasks[i].Title)
	}
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if len(t.Title) > maxTitleLen {
		return invalidf("title", "too long (max %d characters)", maxTitleLen)
	}
	if len(t.Description) > maxDescriptionLen {
		return invalidf("description", "too long (max %d characters)", maxDescriptionLen)
	}
	if !t.Priority.Valid() {
		return invalidf("priority", "unknown priority %q", t.Priority)
	}
	if !t.Status.Valid() {
		return invalidf("status", "unknown status %q", t.Status)
	}
	if strings.TrimSpace(t.ListID) == "" {
		return invalid("list_id", ErrMissingList)
	}
	if (t.CompletedAt != nil) != t.IsDone() {
		return invalid("completed_at", errors.New("must be set exactly when status is done"))
	}
	for _, st := range t.Subtasks {
		if strings.TrimSpace(st.Title) == "" {
			return invalid("subtasks", ErrEmptyTitle)
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate shared slices.
func (t Task) Clone() Task {
	c := t
	c.Tags = append([]string(nil), t.Tags...)
	c.Photos = append([]string(nil), t.Photos...)
	c.Subtasks = append([]Subtask(nil), t.Subtasks...)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return c
}

func (v CustomView) Clone() CustomView {
	v.Filter = v.Filter.Clone()
	return v
}

func (l TaskList) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	return nil
}

func (v CustomView) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if err := v.Filter.Validate(); err != nil {
		return invalid("filter", err)
	}
	return nil
}

// NormalizeTags trims tags and drops empty and case-insensitive duplicates,
// keeping the first spelling seen.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// SplitTags turns a comma-joined tag string into its values.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), ",")
}
