package gtasks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"taskfin/internal/core"
)

const (
	maxTitle = 200
	maxNotes = 2000
)

// TaskStore is the part of the record store the importer writes through.
type TaskStore interface {
	Lists() []core.TaskList
	AllTasks() []core.Task
	CreateList(ctx context.Context, l core.TaskList) (core.TaskList, error)
	CreateTask(ctx context.Context, t core.Task) (core.Task, error)
}

// Result counts what an import did.
type Result struct {
	Lists   int `json:"lists"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Importer struct {
	source Source
	store  TaskStore
}

func NewImporter(source Source, store TaskStore) *Importer {
	return &Importer{source: source, store: store}
}

// Import copies every Google Tasks list into a list of the same name,
// creating it when missing. Nested items become subtasks of their parent.
// Tasks whose title already exists in the target list are skipped, so
// running the import twice creates nothing new.
func (im *Importer) Import(ctx context.Context) (Result, error) {
	var res Result
	remoteLists, err := im.source.Lists(ctx)
	if err != nil {
		return res, err
	}

	for _, rl := range remoteLists {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		list, err := im.ensureList(ctx, rl)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create list for import", "remote_list", rl.Title, "error", err)
			res.Failed++
			continue
		}
		res.Lists++

		remote, err := im.source.Tasks(ctx, rl.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to read remote tasks", "remote_list", rl.Title, "error", err)
			res.Failed++
			continue
		}
		im.importTasks(ctx, list, remote, &res)
	}

	slog.InfoContext(ctx, "Google Tasks import complete",
		"lists", res.Lists,
		"created", res.Created,
		"skipped", res.Skipped,
		"failed", res.Failed)
	return res, nil
}

func (im *Importer) ensureList(ctx context.Context, rl RemoteList) (core.TaskList, error) {
	name := strings.TrimSpace(rl.Title)
	if name == "" {
		name = "Google Tasks"
	}
	for _, l := range im.store.Lists() {
		if strings.EqualFold(l.Name, name) {
			return l, nil
		}
	}
	created, err := im.store.CreateList(ctx, core.TaskList{Name: truncate(name, maxTitle)})
	if err != nil {
		return core.TaskList{}, fmt.Errorf("create list %q: %w", name, err)
	}
	return created, nil
}

func (im *Importer) importTasks(ctx context.Context, list core.TaskList, remote []RemoteTask, res *Result) {
	live := make(map[string]RemoteTask, len(remote))
	for _, rt := range remote {
		if !rt.Deleted && strings.TrimSpace(rt.Title) != "" {
			live[rt.ID] = rt
		}
	}
	children := make(map[string][]RemoteTask)
	var top []RemoteTask
	for _, rt := range remote {
		if _, ok := live[rt.ID]; !ok {
			continue
		}
		if _, hasParent := live[rt.Parent]; rt.Parent != "" && hasParent {
			children[rt.Parent] = append(children[rt.Parent], rt)
			continue
		}
		top = append(top, rt)
	}
	byPosition(top)

	existing := make(map[string]bool)
	for _, t := range im.store.AllTasks() {
		if t.ListID == list.ID {
			existing[titleKey(t.Title)] = true
		}
	}

	for _, rt := range top {
		task := ToTask(rt, children[rt.ID], list.ID)
		if existing[titleKey(task.Title)] {
			res.Skipped++
			continue
		}
		if _, err := im.store.CreateTask(ctx, task); err != nil {
			slog.ErrorContext(ctx, "Failed to import task",
				"remote_id", rt.ID,
				"list_id", list.ID,
				"error", err)
			res.Failed++
			continue
		}
		existing[titleKey(task.Title)] = true
		res.Created++
	}
}

// ToTask maps a Google Tasks item and its children onto a task in listID.
func ToTask(rt RemoteTask, children []RemoteTask, listID string) core.Task {
	t := core.Task{
		Title:       truncate(strings.TrimSpace(rt.Title), maxTitle),
		Description: truncate(strings.TrimSpace(rt.Notes), maxNotes),
		ListID:      listID,
		Priority:    core.PriorityMedium,
		Status:      core.TaskPending,
		Link:        rt.Link,
	}
	if due, ok := parseRFC3339(rt.Due); ok {
		d := core.DateOf(due.UTC())
		t.DueDate = &d
	}
	if rt.Status == "completed" {
		t.Status = core.TaskDone
		if at, ok := parseRFC3339(rt.Completed); ok {
			t.CompletedAt = &at
		}
	}
	byPosition(children)
	for _, c := range children {
		t.Subtasks = append(t.Subtasks, core.Subtask{
			Title:     truncate(strings.TrimSpace(c.Title), maxTitle),
			Completed: c.Status == "completed",
		})
	}
	return t
}

func byPosition(tasks []RemoteTask) {
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Position < tasks[j].Position })
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
