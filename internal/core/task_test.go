package core

import (
	"errors"
	"testing"
	"time"
)

func validTask() Task {
	return Task{ID: "t1", Title: "Write report", Priority: PriorityHigh, Status: TaskPending, ListID: "l1"}
}

func TestTaskSetStatusKeepsCompletedAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	task := validTask()

	task.SetStatus(TaskDone, now)
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Fatalf("expected completed_at=%v, got %v", now, task.CompletedAt)
	}

	later := now.Add(time.Hour)
	task.SetStatus(TaskDone, later)
	if !task.CompletedAt.Equal(now) {
		t.Fatalf("re-completing must keep the first completion time")
	}

	task.SetStatus(TaskPending, later)
	if task.CompletedAt != nil {
		t.Fatalf("reopening must clear completed_at")
	}
}

func TestTaskNormalizeRepairsInvariant(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	stale := now.Add(-time.Hour)

	tests := []struct {
		name   string
		task   Task
		wantAt bool
	}{
		{"done without timestamp", Task{Title: "a", Status: TaskDone}, true},
		{"pending with timestamp", Task{Title: "a", Status: TaskPending, CompletedAt: &stale}, false},
		{"empty status defaults to pending", Task{Title: "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			task.Normalize(now)
			if (task.CompletedAt != nil) != tt.wantAt {
				t.Fatalf("completed_at set=%v, want %v", task.CompletedAt != nil, tt.wantAt)
			}
			if task.Priority != PriorityMedium {
				t.Fatalf("expected default priority, got %q", task.Priority)
			}
		})
	}
}

func TestTaskValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr error
	}{
		{"valid", func(*Task) {}, nil},
		{"empty title", func(t *Task) { t.Title = "  " }, ErrEmptyTitle},
		{"missing list", func(t *Task) { t.ListID = "" }, ErrMissingList},
		{"done without completion", func(t *Task) { t.Status = TaskDone }, nil},
		{"completion without done", func(t *Task) { t.CompletedAt = &now }, nil},
		{"bad priority", func(t *Task) { t.Priority = "whenever" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(&task)
			err := task.Validate()
			if tt.name == "valid" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error")
			}
			if !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" urgent", "Urgent", "", "home", "home "})
	want := []string{"urgent", "home"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if SplitTags("") != nil {
		t.Fatalf("expected nil tags for empty string")
	}
	if JoinTags(SplitTags("a, b,a")) != "a,b" {
		t.Fatalf("unexpected join: %q", JoinTags(SplitTags("a, b,a")))
	}
}

func TestTaskCloneIsDeep(t *testing.T) {
	due := NewDate(2026, 1, 2)
	task := validTask()
	task.Tags = []string{"x"}
	task.DueDate = &due

	c := task.Clone()
	c.Tags[0] = "y"
	*c.DueDate = NewDate(2027, 1, 1)
	if task.Tags[0] != "x" || !task.DueDate.Equal(due.Time) {
		t.Fatalf("clone shares memory with original")
	}
}
