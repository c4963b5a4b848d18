package filter

import "time"

// Bucket is the named position of a reference date relative to today.
type Bucket string

const (
	Overdue  Bucket = "overdue"
	Today    Bucket = "today"
	Tomorrow Bucket = "tomorrow"
	ThisWeek Bucket = "this_week"
	Later    Bucket = "later"
	NoDate   Bucket = "no_date"
)

// WeekDays is the forward window of the week bucket and the week filter.
const WeekDays = 7

// Buckets lists every bucket in display order.
var Buckets = []Bucket{Overdue, Today, Tomorrow, ThisWeek, Later, NoDate}

// StartOfDay returns local midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween counts calendar days from a to b as seen in loc. It is
// immune to DST shifts because it compares civil dates, not durations.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	ca := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	cb := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(cb.Sub(ca).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DaysBetween(a, b, loc) == 0
}

// InWeekWindow reports whether date lies in [today, today+7] inclusive.
func InWeekWindow(now, date time.Time) bool {
	n := DaysBetween(now, date, now.Location())
	return n >= 0 && n <= WeekDays
}

// Classify places date into exactly one bucket using the calendar days of
// now.Location(). A nil date is NoDate.
func Classify(now time.Time, date *time.Time) Bucket {
	if date == nil {
		return NoDate
	}
	n := DaysBetween(now, *date, now.Location())
	switch {
	case n < 0:
		return Overdue
	case n == 0:
		return Today
	case n == 1:
		return Tomorrow
	case n <= WeekDays:
		return ThisWeek
	default:
		return Later
	}
}
