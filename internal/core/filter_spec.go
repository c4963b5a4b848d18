package core

import (
	"fmt"
	"slices"
	"strings"
)

type (
	StatusFilter string
	DateRange    string
	SortKey      string
	SortOrder    string
)

const (
	StatusAll       StatusFilter = "all"
	StatusPending   StatusFilter = "pending"
	StatusCompleted StatusFilter = "completed"

	RangeNone    DateRange = ""
	RangeToday   DateRange = "today"
	RangeWeek    DateRange = "week"
	RangeOverdue DateRange = "overdue"

	SortNone         SortKey = ""
	SortDate         SortKey = "date"
	SortAmount       SortKey = "amount"
	SortSignedAmount SortKey = "signed_amount"
	SortPriority     SortKey = "priority"
	SortTitle        SortKey = "title"
	SortCreated      SortKey = "created"

	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// FilterSpec declares the subset and order of a collection to derive.
// Owner is the list id for tasks and the account id for transactions; Kind
// is the priority for tasks and the transaction type for transactions.
type FilterSpec struct {
	Status    StatusFilter `json:"status"`
	Owner     string       `json:"owner,omitempty"`
	Kind      string       `json:"kind,omitempty"`
	Tags      []string     `json:"tags,omitempty"`
	DateRange DateRange    `json:"date_range,omitempty"`
	Search    string       `json:"search,omitempty"`
	SortKey   SortKey      `json:"sort_key,omitempty"`
	SortOrder SortOrder    `json:"sort_order,omitempty"`
}

// Clone returns a copy that shares no memory with s.
func (s FilterSpec) Clone() FilterSpec {
	if s.Tags != nil {
		s.Tags = append([]string(nil), s.Tags...)
	}
	return s
}

// DefaultFilter keeps every record in its original order.
func DefaultFilter() FilterSpec {
	return FilterSpec{Status: StatusAll, SortOrder: Asc}
}

// Normalize lower-cases enum fields, trims free text and dedupes tags.
func (s FilterSpec) Normalize() FilterSpec {
	out := FilterSpec{
		Status:    StatusFilter(strings.ToLower(strings.TrimSpace(string(s.Status)))),
		Owner:     strings.TrimSpace(s.Owner),
		Kind:      strings.ToLower(strings.TrimSpace(s.Kind)),
		Tags:      NormalizeTags(s.Tags),
		DateRange: DateRange(strings.ToLower(strings.TrimSpace(string(s.DateRange)))),
		Search:    strings.TrimSpace(s.Search),
		SortKey:   SortKey(strings.ToLower(strings.TrimSpace(string(s.SortKey)))),
		SortOrder: SortOrder(strings.ToLower(strings.TrimSpace(string(s.SortOrder)))),
	}
	if out.Status == "" {
		out.Status = StatusAll
	}
	if out.SortOrder == "" {
		out.SortOrder = Asc
	}
	if len(out.Tags) == 0 {
		out.Tags = nil
	}
	return out
}

func (s FilterSpec) Validate() error {
	switch s.Status {
	case "", StatusAll, StatusPending, StatusCompleted:
	default:
		return invalidf("status", "unknown status filter %q", s.Status)
	}
	switch s.DateRange {
	case RangeNone, RangeToday, RangeWeek, RangeOverdue:
	default:
		return invalidf("date_range", "unknown date range %q", s.DateRange)
	}
	switch s.SortKey {
	case SortNone, SortDate, SortAmount, SortSignedAmount, SortPriority, SortTitle, SortCreated:
	default:
		return invalidf("sort_key", "unknown sort key %q", s.SortKey)
	}
	switch s.SortOrder {
	case "", Asc, Desc:
	default:
		return invalidf("sort_order", "unknown sort order %q", s.SortOrder)
	}
	return nil
}

// Equal compares field by field after normalization.
func (s FilterSpec) Equal(o FilterSpec) bool {
	a, b := s.Normalize(), o.Normalize()
	return a.Status == b.Status &&
		a.Owner == b.Owner &&
		a.Kind == b.Kind &&
		slices.Equal(a.Tags, b.Tags) &&
		a.DateRange == b.DateRange &&
		a.Search == b.Search &&
		a.SortKey == b.SortKey &&
		a.SortOrder == b.SortOrder
}

// Key is a canonical string form. Equal specs have equal keys.
func (s FilterSpec) Key() string {
	n := s.Normalize()
	return fmt.Sprintf("s=%s|o=%q|k=%q|t=%q|r=%s|q=%q|sk=%s|so=%s",
		n.Status, n.Owner, n.Kind, strings.Join(n.Tags, "\x1f"), n.DateRange, n.Search, n.SortKey, n.SortOrder)
}
