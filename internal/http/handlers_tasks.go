package http

import (
	"errors"
	"net/http"

	"taskfin/internal/core"
	"taskfin/internal/store"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilterSpec(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(s.store.Tasks(spec)))
}

// handleTaskGroups returns the filtered tasks grouped by due-date bucket.
func (s *Server) handleTaskGroups(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilterSpec(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(s.store.TaskGroups(spec)))
}

func (s *Server) handleTaskCounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Counts())
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Task(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var t core.Task
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = ""
	created, err := s.store.CreateTask(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch store.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateTask(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.ToggleTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUndoDeleteTask restores the last deleted task while the undo
// window is open.
func (s *Server) handleUndoDeleteTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.UndoDeleteTask(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type bulkRequest struct {
	Action string          `json:"action"`
	IDs    []string        `json:"ids"`
	Patch  store.TaskPatch `json:"patch"`
}

// handleBulkTasks applies one action to many tasks. Each id reports its
// own outcome; failures do not undo earlier successes.
func (s *Server) handleBulkTasks(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, r, &core.ValidationError{Field: "ids", Err: errors.New("at least one id is required")})
		return
	}
	if len(req.IDs) > 500 {
		writeError(w, r, badRequest("at most 500 ids per request"))
		return
	}

	var results []store.BatchResult
	switch req.Action {
	case "update":
		results = s.store.BulkUpdateTasks(r.Context(), req.IDs, req.Patch)
	case "delete":
		results = s.store.BulkDeleteTasks(r.Context(), req.IDs)
	default:
		writeError(w, r, badRequest("unknown bulk action %q", req.Action))
		return
	}
	writeJSON(w, http.StatusOK, batchItems(results))
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.store.Lists()))
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var l core.TaskList
	if err := decodeJSON(w, r, &l); err != nil {
		writeError(w, r, err)
		return
	}
	l.ID = ""
	created, err := s.store.CreateList(r.Context(), l)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	var patch store.ListPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateList(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteList deletes a list together with its tasks.
func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteList(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.store.Views()))
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var v core.CustomView
	if err := decodeJSON(w, r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	v.ID = ""
	created, err := s.store.CreateView(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteView(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleViewTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ViewTasks(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(tasks))
}
