package http

import (
	"net/http"
	"testing"

	"taskfin/internal/core"
)

func createList(t *testing.T, srv *Server, name string) core.TaskList {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/lists", map[string]string{"name": name})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create list: %d %s", rec.Code, rec.Body.String())
	}
	return decode[core.TaskList](t, rec)
}

func createTask(t *testing.T, srv *Server, body map[string]any) core.Task {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/tasks", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", rec.Code, rec.Body.String())
	}
	return decode[core.Task](t, rec)
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})
	list := createList(t, srv, "Home")

	task := createTask(t, srv, map[string]any{
		"title":    "  Pay rent ",
		"list_id":  list.ID,
		"due_date": "2026-03-14",
		"tags":     []string{"Bills"},
	})
	createTask(t, srv, map[string]any{"title": "Plan trip", "list_id": list.ID, "due_date": "2026-04-20"})

	if task.Title != "Pay rent" || task.Priority != core.PriorityMedium || task.Status != core.TaskPending {
		t.Errorf("created task not normalized: %+v", task)
	}
	if task.UserID != "u1" {
		t.Errorf("UserID = %q", task.UserID)
	}

	today := decode[[]core.Task](t, do(t, srv, http.MethodGet, "/api/tasks?range=today", nil))
	if len(today) != 1 || today[0].ID != task.ID {
		t.Errorf("range=today returned %+v", today)
	}

	rec := do(t, srv, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: %d %s", rec.Code, rec.Body.String())
	}
	toggled := decode[core.Task](t, rec)
	if toggled.Status != core.TaskDone || toggled.CompletedAt == nil {
		t.Errorf("toggled task = %+v", toggled)
	}

	pending := decode[[]core.Task](t, do(t, srv, http.MethodGet, "/api/tasks?status=pending", nil))
	if len(pending) != 1 || pending[0].Title != "Plan trip" {
		t.Errorf("status=pending returned %+v", pending)
	}

	if rec := do(t, srv, http.MethodDelete, "/api/tasks/"+task.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/tasks/"+task.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted task: %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/tasks/undo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("undo: %d %s", rec.Code, rec.Body.String())
	}
	if restored := decode[core.Task](t, rec); restored.ID != task.ID {
		t.Errorf("restored %q, want %q", restored.ID, task.ID)
	}
	if rec := do(t, srv, http.MethodPost, "/api/tasks/undo", nil); rec.Code != http.StatusConflict {
		t.Errorf("second undo: %d, want 409", rec.Code)
	}
}

func TestTaskErrors(t *testing.T) {
	srv := newTestServer(t, Options{})
	list := createList(t, srv, "Home")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		field  string
	}{
		{name: "missing task", method: http.MethodGet, path: "/api/tasks/nope", status: http.StatusNotFound},
		{name: "empty title", method: http.MethodPost, path: "/api/tasks", body: map[string]any{"title": " ", "list_id": list.ID}, status: http.StatusUnprocessableEntity, field: "title"},
		{name: "unknown list", method: http.MethodPost, path: "/api/tasks", body: map[string]any{"title": "x", "list_id": "nope"}, status: http.StatusUnprocessableEntity, field: "list_id"},
		{name: "malformed json", method: http.MethodPost, path: "/api/tasks", body: "{", status: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, path: "/api/tasks", body: `{"title":"x","owner":"me"}`, status: http.StatusBadRequest},
		{name: "bad status filter", method: http.MethodGet, path: "/api/tasks?status=sometimes", status: http.StatusUnprocessableEntity, field: "status"},
		{name: "bulk without ids", method: http.MethodPost, path: "/api/tasks/bulk", body: map[string]any{"action": "delete"}, status: http.StatusUnprocessableEntity, field: "ids"},
		{name: "bulk unknown action", method: http.MethodPost, path: "/api/tasks/bulk", body: map[string]any{"action": "archive", "ids": []string{"a"}}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			resp := decode[ErrorResponse](t, rec)
			if resp.Error == "" {
				t.Error("error message should not be empty")
			}
			if resp.Field != tt.field {
				t.Errorf("field = %q, want %q", resp.Field, tt.field)
			}
		})
	}
}

func TestBulkTasksReportsEachItem(t *testing.T) {
	srv := newTestServer(t, Options{})
	list := createList(t, srv, "Home")
	a := createTask(t, srv, map[string]any{"title": "a", "list_id": list.ID})
	b := createTask(t, srv, map[string]any{"title": "b", "list_id": list.ID})

	rec := do(t, srv, http.MethodPost, "/api/tasks/bulk", map[string]any{
		"action": "update",
		"ids":    []string{a.ID, "missing", b.ID},
		"patch":  map[string]any{"priority": "high"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk update: %d %s", rec.Code, rec.Body.String())
	}
	items := decode[[]BatchItem](t, rec)
	if len(items) != 3 {
		t.Fatalf("got %d items", len(items))
	}
	if !items[0].OK || items[1].OK || !items[2].OK {
		t.Errorf("unexpected outcomes %+v", items)
	}
	if items[1].Error == "" {
		t.Error("failed item should carry its error")
	}
	if items[0].Task == nil || items[0].Task.Priority != core.PriorityHigh {
		t.Errorf("updated task = %+v", items[0].Task)
	}

	rec = do(t, srv, http.MethodPost, "/api/tasks/bulk", map[string]any{"action": "delete", "ids": []string{a.ID, b.ID}})
	if items := decode[[]BatchItem](t, rec); len(items) != 2 || !items[0].OK || !items[1].OK {
		t.Errorf("bulk delete = %+v", items)
	}
	counts := do(t, srv, http.MethodGet, "/api/tasks/counts", nil)
	if counts.Code != http.StatusOK {
		t.Errorf("counts: %d", counts.Code)
	}
}

func TestViewsAndLists(t *testing.T) {
	srv := newTestServer(t, Options{})
	work := createList(t, srv, "Work")
	home := createList(t, srv, "Home")
	createTask(t, srv, map[string]any{"title": "report", "list_id": work.ID, "priority": "high"})
	createTask(t, srv, map[string]any{"title": "dishes", "list_id": home.ID})

	rec := do(t, srv, http.MethodPost, "/api/views", map[string]any{
		"name":   "Urgent work",
		"icon":   "flame",
		"filter": map[string]any{"status": "all", "owner": work.ID, "kind": "high"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create view: %d %s", rec.Code, rec.Body.String())
	}
	view := decode[core.CustomView](t, rec)

	tasks := decode[[]core.Task](t, do(t, srv, http.MethodGet, "/api/views/"+view.ID+"/tasks", nil))
	if len(tasks) != 1 || tasks[0].Title != "report" {
		t.Errorf("view tasks = %+v", tasks)
	}

	rec = do(t, srv, http.MethodPatch, "/api/lists/"+home.ID, map[string]any{"name": "House"})
	if rec.Code != http.StatusOK || decode[core.TaskList](t, rec).Name != "House" {
		t.Errorf("rename list: %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/api/lists/"+home.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete list: %d", rec.Code)
	}
	remaining := decode[[]core.Task](t, do(t, srv, http.MethodGet, "/api/tasks", nil))
	if len(remaining) != 1 || remaining[0].ListID != work.ID {
		t.Errorf("deleting a list should cascade to its tasks, got %+v", remaining)
	}
	if rec := do(t, srv, http.MethodDelete, "/api/views/"+view.ID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete view: %d", rec.Code)
	}
}
