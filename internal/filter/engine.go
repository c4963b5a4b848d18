// Package filter derives views from record collections: it filters and sorts
// them according to a core.FilterSpec and classifies reference dates into
// buckets. Everything here is pure; callers pass "now" explicitly.
package filter

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"taskfin/internal/core"
)

// Accessor adapts a record type to the engine. Date returns the reference
// date in loc (false when the record has none). Compare holds the
// comparators for the sort keys the type supports; SortDate is handled by
// the engine through Date.
type Accessor[T any] struct {
	Date    func(r T, loc *time.Location) (time.Time, bool)
	Done    func(r T) bool
	Owner   func(r T) string
	Kind    func(r T) string
	Tags    func(r T) []string
	Text    func(r T) []string
	Compare map[core.SortKey]func(a, b T) int
}

// Apply returns the records of in that pass every active clause of spec,
// sorted stably by spec.SortKey. The result is a fresh slice.
func Apply[T any](in []T, spec core.FilterSpec, acc Accessor[T], now time.Time) []T {
	spec = spec.Normalize()
	out := make([]T, 0, len(in))
	for _, r := range in {
		if matches(r, spec, acc, now) {
			out = append(out, r)
		}
	}
	sortRecords(out, spec, acc, now.Location())
	return out
}

// Count is len(Apply(...)) without sorting or allocating the result.
func Count[T any](in []T, spec core.FilterSpec, acc Accessor[T], now time.Time) int {
	spec = spec.Normalize()
	n := 0
	for _, r := range in {
		if matches(r, spec, acc, now) {
			n++
		}
	}
	return n
}

// Matches reports whether a single record passes every active clause.
func Matches[T any](r T, spec core.FilterSpec, acc Accessor[T], now time.Time) bool {
	return matches(r, spec.Normalize(), acc, now)
}

func matches[T any](r T, spec core.FilterSpec, acc Accessor[T], now time.Time) bool {
	switch spec.Status {
	case core.StatusPending:
		if acc.Done(r) {
			return false
		}
	case core.StatusCompleted:
		if !acc.Done(r) {
			return false
		}
	}

	if spec.Owner != "" && acc.Owner(r) != spec.Owner {
		return false
	}

	if spec.Kind != "" && !strings.EqualFold(acc.Kind(r), spec.Kind) {
		return false
	}

	if len(spec.Tags) > 0 && !anyTag(acc.Tags(r), spec.Tags) {
		return false
	}

	if spec.DateRange != core.RangeNone && !inRange(r, spec.DateRange, acc, now) {
		return false
	}

	if spec.Search != "" && !containsText(acc.Text(r), spec.Search) {
		return false
	}
	return true
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(h), w) {
				return true
			}
		}
	}
	return false
}

// inRange fails closed: a record without a reference date never matches.
func inRange[T any](r T, rng core.DateRange, acc Accessor[T], now time.Time) bool {
	loc := now.Location()
	date, ok := acc.Date(r, loc)
	if !ok {
		return false
	}
	n := DaysBetween(now, date, loc)
	switch rng {
	case core.RangeToday:
		return n == 0
	case core.RangeWeek:
		return n >= 0 && n <= WeekDays
	case core.RangeOverdue:
		return n < 0 && !acc.Done(r)
	}
	return false
}

func containsText(fields []string, query string) bool {
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func sortRecords[T any](out []T, spec core.FilterSpec, acc Accessor[T], loc *time.Location) {
	var compare func(a, b T) int
	if spec.SortKey == core.SortDate {
		compare = func(a, b T) int { return compareDates(a, b, acc, loc, spec.SortOrder) }
	} else if c, ok := acc.Compare[spec.SortKey]; ok && spec.SortKey != core.SortNone {
		compare = c
		if spec.SortOrder == core.Desc {
			compare = func(a, b T) int { return -c(a, b) }
		}
	}
	if compare == nil {
		return
	}
	slices.SortStableFunc(out, compare)
}

// compareDates keeps undated records last in either direction.
func compareDates[T any](a, b T, acc Accessor[T], loc *time.Location, order core.SortOrder) int {
	da, okA := acc.Date(a, loc)
	db, okB := acc.Date(b, loc)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	c := da.Compare(db)
	if order == core.Desc {
		return -c
	}
	return c
}

// Group is the slice of records that share a bucket.
type Group[T any] struct {
	Bucket Bucket `json:"bucket"`
	Items  []T    `json:"items"`
}

// GroupByBucket partitions records by date bucket in display order, keeping
// input order inside each group. Empty buckets are omitted.
func GroupByBucket[T any](in []T, acc Accessor[T], now time.Time) []Group[T] {
	byBucket := make(map[Bucket][]T, len(Buckets))
	for _, r := range in {
		b := classifyRecord(r, acc, now)
		byBucket[b] = append(byBucket[b], r)
	}
	groups := make([]Group[T], 0, len(byBucket))
	for _, b := range Buckets {
		if items := byBucket[b]; len(items) > 0 {
			groups = append(groups, Group[T]{Bucket: b, Items: items})
		}
	}
	return groups
}

// CountBuckets returns how many records fall in each bucket.
func CountBuckets[T any](in []T, acc Accessor[T], now time.Time) map[Bucket]int {
	counts := make(map[Bucket]int, len(Buckets))
	for _, b := range Buckets {
		counts[b] = 0
	}
	for _, r := range in {
		counts[classifyRecord(r, acc, now)]++
	}
	return counts
}

func classifyRecord[T any](r T, acc Accessor[T], now time.Time) Bucket {
	date, ok := acc.Date(r, now.Location())
	if !ok {
		return NoDate
	}
	return Classify(now, &date)
}

func compareFold(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}
