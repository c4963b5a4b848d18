package store

import (
	"context"
	"fmt"
	"strings"

	"taskfin/internal/core"
)

// BatchResult is the outcome of one item of a bulk operation.
type BatchResult struct {
	ID   string     `json:"id"`
	Task *core.Task `json:"task,omitempty"`
	Err  error      `json:"-"`
}

func (r BatchResult) OK() bool { return r.Err == nil }

func (s *Store) checkList(id string) error {
	if _, err := s.List(id); err != nil {
		return &core.ValidationError{Field: "list_id", Err: fmt.Errorf("list %q: %w", id, err)}
	}
	return nil
}

// CreateTask validates t, persists it and adds the confirmed task locally.
func (s *Store) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	now := s.now()
	if t.ID == "" {
		t.ID = core.NewID()
	}
	t.UserID = s.cfg.UserID
	t.CreatedAt, t.UpdatedAt = now, now
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == "" {
			t.Subtasks[i].ID = core.NewID()
		}
	}
	t.Normalize(now)
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	if err := s.checkList(t.ListID); err != nil {
		return core.Task{}, err
	}

	created, err := mutate(ctx, s, TableTasks, "create", func(ctx context.Context) (core.Task, error) {
		return s.collab.Tasks().Create(ctx, t)
	})
	if err != nil {
		return core.Task{}, err
	}
	s.mu.Lock()
	put(s, &s.tasks, created, taskID)
	s.mu.Unlock()
	s.confirmed(ctx, TableTasks, "create", created.ID)
	return created, nil
}

// UpdateTask merges patch into the current task and persists the result.
func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) (core.Task, error) {
	current, err := s.Task(id)
	if err != nil {
		return core.Task{}, err
	}
	now := s.now()
	merged := patch.apply(current, now)
	merged.Normalize(now)
	if err := merged.Validate(); err != nil {
		return core.Task{}, err
	}
	if merged.ListID != current.ListID {
		if err := s.checkList(merged.ListID); err != nil {
			return core.Task{}, err
		}
	}
	for i := range merged.Subtasks {
		if merged.Subtasks[i].ID == "" {
			merged.Subtasks[i].ID = core.NewID()
		}
	}

	updated, err := mutate(ctx, s, TableTasks, "update", func(ctx context.Context) (core.Task, error) {
		return s.collab.Tasks().Update(ctx, merged)
	})
	if err != nil {
		return core.Task{}, err
	}
	s.mu.Lock()
	put(s, &s.tasks, updated, taskID)
	s.mu.Unlock()
	s.confirmed(ctx, TableTasks, "update", id)
	return updated, nil
}

// ToggleTask flips a task between pending and done.
func (s *Store) ToggleTask(ctx context.Context, id string) (core.Task, error) {
	current, err := s.Task(id)
	if err != nil {
		return core.Task{}, err
	}
	next := core.TaskDone
	if current.IsDone() {
		next = core.TaskPending
	}
	return s.UpdateTask(ctx, id, TaskPatch{Status: &next})
}

// DeleteTask removes the task and keeps it in the undo slot for the
// configured window.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	current, err := s.Task(id)
	if err != nil {
		return err
	}
	err = s.call(ctx, TableTasks, "delete", func(ctx context.Context) error {
		return s.collab.Tasks().Delete(ctx, s.cfg.UserID, id)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	drop(s, &s.tasks, func(t core.Task) bool { return t.ID == id })
	s.lastDeleted = &deletedTask{task: current, expires: s.now().Add(s.cfg.UndoWindow)}
	s.mu.Unlock()
	s.confirmed(ctx, TableTasks, "delete", id)
	return nil
}

// CanUndo reports whether a deleted task can still be restored.
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastDeleted != nil && !s.now().After(s.lastDeleted.expires)
}

// UndoDeleteTask recreates the last deleted task if the undo window is
// still open. The slot is cleared once the task is restored.
func (s *Store) UndoDeleteTask(ctx context.Context) (core.Task, error) {
	s.mu.Lock()
	slot := s.lastDeleted
	if slot != nil && s.now().After(slot.expires) {
		s.lastDeleted = nil
		slot = nil
	}
	s.mu.Unlock()
	if slot == nil {
		return core.Task{}, ErrNothingToUndo
	}
	if err := s.checkList(slot.task.ListID); err != nil {
		return core.Task{}, err
	}

	restored, err := mutate(ctx, s, TableTasks, "restore", func(ctx context.Context) (core.Task, error) {
		return s.collab.Tasks().Create(ctx, slot.task)
	})
	if err != nil {
		return core.Task{}, err
	}
	s.mu.Lock()
	if s.lastDeleted == slot {
		s.lastDeleted = nil
	}
	put(s, &s.tasks, restored, taskID)
	s.mu.Unlock()
	s.confirmed(ctx, TableTasks, "restore", restored.ID)
	return restored, nil
}

// BulkUpdateTasks applies patch to every id independently. Items that
// fail do not roll back the ones that succeeded.
func (s *Store) BulkUpdateTasks(ctx context.Context, ids []string, patch TaskPatch) []BatchResult {
	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		t, err := s.UpdateTask(ctx, id, patch)
		r := BatchResult{ID: id, Err: err}
		if err == nil {
			r.Task = &t
		}
		results = append(results, r)
	}
	return results
}

// BulkDeleteTasks deletes every id independently. The undo slot keeps
// only the last successful deletion.
func (s *Store) BulkDeleteTasks(ctx context.Context, ids []string) []BatchResult {
	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, BatchResult{ID: id, Err: s.DeleteTask(ctx, id)})
	}
	return results
}

func (s *Store) CreateList(ctx context.Context, l core.TaskList) (core.TaskList, error) {
	if l.ID == "" {
		l.ID = core.NewID()
	}
	l.UserID = s.cfg.UserID
	l.Name = strings.TrimSpace(l.Name)
	if err := l.Validate(); err != nil {
		return core.TaskList{}, err
	}
	created, err := mutate(ctx, s, TableLists, "create", func(ctx context.Context) (core.TaskList, error) {
		return s.collab.Lists().Create(ctx, l)
	})
	if err != nil {
		return core.TaskList{}, err
	}
	s.mu.Lock()
	put(s, &s.lists, created, listID)
	s.mu.Unlock()
	s.confirmed(ctx, TableLists, "create", created.ID)
	return created, nil
}

func (s *Store) UpdateList(ctx context.Context, id string, patch ListPatch) (core.TaskList, error) {
	current, err := s.List(id)
	if err != nil {
		return core.TaskList{}, err
	}
	merged := patch.apply(current)
	merged.Name = strings.TrimSpace(merged.Name)
	if err := merged.Validate(); err != nil {
		return core.TaskList{}, err
	}
	updated, err := mutate(ctx, s, TableLists, "update", func(ctx context.Context) (core.TaskList, error) {
		return s.collab.Lists().Update(ctx, merged)
	})
	if err != nil {
		return core.TaskList{}, err
	}
	s.mu.Lock()
	put(s, &s.lists, updated, listID)
	s.mu.Unlock()
	s.confirmed(ctx, TableLists, "update", id)
	return updated, nil
}

// DeleteList deletes the list and, locally, every task it owned.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	if _, err := s.List(id); err != nil {
		return err
	}
	err := s.call(ctx, TableLists, "delete", func(ctx context.Context) error {
		return s.collab.Lists().Delete(ctx, s.cfg.UserID, id)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	drop(s, &s.lists, func(l core.TaskList) bool { return l.ID == id })
	drop(s, &s.tasks, func(t core.Task) bool { return t.ListID == id })
	if s.lastDeleted != nil && s.lastDeleted.task.ListID == id {
		s.lastDeleted = nil
	}
	s.mu.Unlock()
	s.confirmed(ctx, TableLists, "delete", id)
	return nil
}

func (s *Store) CreateView(ctx context.Context, v core.CustomView) (core.CustomView, error) {
	if v.ID == "" {
		v.ID = core.NewID()
	}
	v.UserID = s.cfg.UserID
	v.Name = strings.TrimSpace(v.Name)
	v.Filter = v.Filter.Normalize()
	if err := v.Validate(); err != nil {
		return core.CustomView{}, err
	}
	created, err := mutate(ctx, s, TableViews, "create", func(ctx context.Context) (core.CustomView, error) {
		return s.collab.Views().Create(ctx, v)
	})
	if err != nil {
		return core.CustomView{}, err
	}
	s.mu.Lock()
	put(s, &s.views, created, viewID)
	s.mu.Unlock()
	s.confirmed(ctx, TableViews, "create", created.ID)
	return created, nil
}

func (s *Store) DeleteView(ctx context.Context, id string) error {
	if _, err := s.View(id); err != nil {
		return err
	}
	err := s.call(ctx, TableViews, "delete", func(ctx context.Context) error {
		return s.collab.Views().Delete(ctx, s.cfg.UserID, id)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	drop(s, &s.views, func(v core.CustomView) bool { return v.ID == id })
	s.mu.Unlock()
	s.confirmed(ctx, TableViews, "delete", id)
	return nil
}
