// Package memory is an in-process sheets exporter used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "taskfin/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	years map[int][]ports.Row
}

var (
	_ ports.MonthExporter = (*Store)(nil)
	_ ports.MonthLister   = (*Store)(nil)
)

func New() *Store {
	return &Store{years: make(map[int][]ports.Row)}
}

// ExportMonth replaces the stored rows of year/month and returns a
// synthetic reference.
func (s *Store) ExportMonth(_ context.Context, year, month int, rows []ports.Row) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("invalid month: %d", month)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.years[year][:0:0]
	for _, r := range s.years[year] {
		if !r.InMonth(year, month) {
			kept = append(kept, r)
		}
	}
	s.years[year] = append(kept, rows...)
	return fmt.Sprintf("mem:%d-%02d:%d", year, month, len(rows)), nil
}

func (s *Store) ListMonth(_ context.Context, year, month int) ([]ports.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.Row
	for _, r := range s.years[year] {
		if r.InMonth(year, month) {
			out = append(out, r)
		}
	}
	return out, nil
}
