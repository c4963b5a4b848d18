// Package gtasks imports Google Tasks lists and tasks into the record store.
package gtasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goption "google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"

	"taskfin/internal/config"
	"taskfin/internal/googleauth"
)

// RemoteList is a Google Tasks list.
type RemoteList struct {
	ID    string
	Title string
}

// RemoteTask is a Google Tasks item. Parent is set for nested items.
type RemoteTask struct {
	ID        string
	Parent    string
	Title     string
	Notes     string
	Status    string
	Due       string
	Completed string
	Link      string
	Deleted   bool
	Position  string
}

// Source reads lists and tasks from Google Tasks.
type Source interface {
	Lists(ctx context.Context) ([]RemoteList, error)
	Tasks(ctx context.Context, listID string) ([]RemoteTask, error)
}

// APISource implements Source over the Tasks API.
type APISource struct {
	svc *gtasks.Service
}

// NewAPISource creates a Tasks API client authorized with the stored token.
func NewAPISource(ctx context.Context, cfg *config.Config) (*APISource, error) {
	httpClient, err := googleauth.FromConfig(cfg).HTTPClient(ctx, gtasks.TasksReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("tasks auth: %w", err)
	}
	svc, err := gtasks.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create tasks service: %w", err)
	}
	slog.InfoContext(ctx, "Google Tasks service created")
	return &APISource{svc: svc}, nil
}

func (s *APISource) Lists(ctx context.Context) ([]RemoteList, error) {
	var out []RemoteList
	err := s.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(page *gtasks.TaskLists) error {
		for _, l := range page.Items {
			out = append(out, RemoteList{ID: l.Id, Title: l.Title})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list task lists: %w", err)
	}
	return out, nil
}

func (s *APISource) Tasks(ctx context.Context, listID string) ([]RemoteTask, error) {
	var out []RemoteTask
	call := s.svc.Tasks.List(listID).MaxResults(100).ShowCompleted(true).ShowHidden(true)
	err := call.Pages(ctx, func(page *gtasks.Tasks) error {
		for _, t := range page.Items {
			rt := RemoteTask{
				ID:       t.Id,
				Parent:   t.Parent,
				Title:    t.Title,
				Notes:    t.Notes,
				Status:   t.Status,
				Due:      t.Due,
				Deleted:  t.Deleted,
				Position: t.Position,
			}
			if t.Completed != nil {
				rt.Completed = *t.Completed
			}
			if len(t.Links) > 0 {
				rt.Link = t.Links[0].Link
			}
			out = append(out, rt)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks of %s: %w", listID, err)
	}
	return out, nil
}

// parseRFC3339 accepts the timestamps the Tasks API returns.
func parseRFC3339(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
