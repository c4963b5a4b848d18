package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"taskfin/internal/core"
)

// SnapshotVersion is the schema version written to snapshot files.
// Files with any other version are ignored on load.
const SnapshotVersion = 1

// SnapshotFile is the fixed name of the snapshot inside a data directory.
const SnapshotFile = "taskfin-state.json"

type snapshotData struct {
	SchemaVersion int                        `json:"schema_version"`
	SavedAt       time.Time                  `json:"saved_at"`
	UserID        string                     `json:"user_id"`
	Lists         []core.TaskList            `json:"lists"`
	Tasks         []core.Task                `json:"tasks"`
	Views         []core.CustomView          `json:"views"`
	Accounts      []core.Account             `json:"accounts"`
	Categories    []core.Category            `json:"categories"`
	Transactions  []core.Transaction         `json:"transactions"`
	Recurrences   []core.Recurrence          `json:"recurrences"`
	Budgets       []core.Budget              `json:"budgets"`
	Filters       map[string]core.FilterSpec `json:"filters"`
}

// SaveSnapshot writes the store's plain data and remembered filters to
// path, replacing the previous file atomically.
func (s *Store) SaveSnapshot(path string) error {
	s.mu.RLock()
	snap := snapshotData{
		SchemaVersion: SnapshotVersion,
		SavedAt:       s.now().UTC(),
		UserID:        s.cfg.UserID,
		Lists:         s.lists.Items,
		Tasks:         s.tasks.Items,
		Views:         s.views.Items,
		Accounts:      s.accounts.Items,
		Categories:    s.categories.Items,
		Transactions:  s.transactions.Items,
		Recurrences:   s.recurrences.Items,
		Budgets:       s.budgets.Items,
		Filters:       make(map[string]core.FilterSpec, len(s.filters)),
	}
	for k, v := range s.filters {
		snap.Filters[k] = v
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores a snapshot written by SaveSnapshot. A missing file,
// an unknown schema version or a snapshot of another user leaves the store
// untouched and reports false.
func (s *Store) LoadSnapshot(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read snapshot: %w", err)
	}

	var head struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return false, fmt.Errorf("decode snapshot: %w", err)
	}
	if head.SchemaVersion != SnapshotVersion {
		slog.Warn("Ignoring snapshot with unknown schema version",
			"path", path,
			"schema_version", head.SchemaVersion)
		return false, nil
	}

	var snap snapshotData
	if err := json.Unmarshal(data, &snap); err != nil {
		return false, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.UserID != s.cfg.UserID {
		slog.Warn("Ignoring snapshot of another user", "path", path)
		return false, nil
	}

	s.mu.Lock()
	replace(s, &s.lists, orEmpty(snap.Lists))
	replace(s, &s.tasks, orEmpty(snap.Tasks))
	replace(s, &s.views, orEmpty(snap.Views))
	replace(s, &s.accounts, orEmpty(snap.Accounts))
	replace(s, &s.categories, orEmpty(snap.Categories))
	replace(s, &s.transactions, orEmpty(snap.Transactions))
	replace(s, &s.recurrences, orEmpty(snap.Recurrences))
	replace(s, &s.budgets, orEmpty(snap.Budgets))
	for k, v := range snap.Filters {
		s.filters[k] = v
	}
	s.mu.Unlock()
	return true, nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (s *Store) autosave(ctx context.Context) {
	if s.cfg.SnapshotPath == "" {
		return
	}
	if err := s.SaveSnapshot(s.cfg.SnapshotPath); err != nil {
		slog.WarnContext(ctx, "Failed to save snapshot", "path", s.cfg.SnapshotPath, "error", err)
	}
}
