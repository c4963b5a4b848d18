// Package services provides business logic that spans several record
// collections: paired transfer legs and recurring transaction generation.
//
// This file implements the strategy registry that advances a recurrence to
// its next occurrence. Each frequency has its own strategy.
package services

import (
	"fmt"
	"time"

	"taskfin/internal/core"
)

// NextOccurrenceStrategy computes the occurrence that follows from.
type NextOccurrenceStrategy interface {
	Next(r core.Recurrence, from core.Date) core.Date
}

// WeeklyStrategy moves to the next BaseDay weekday strictly after from.
type WeeklyStrategy struct{}

func (WeeklyStrategy) Next(r core.Recurrence, from core.Date) core.Date {
	next := from.AddDays(1)
	for int(next.Weekday()) != r.BaseDay {
		next = next.AddDays(1)
	}
	return next
}

// MonthlyStrategy moves to BaseDay of the following month, clamped to the
// month's last day.
type MonthlyStrategy struct{}

func (MonthlyStrategy) Next(r core.Recurrence, from core.Date) core.Date {
	year, month := from.Year(), from.Month()+1
	if month > 12 {
		year, month = year+1, 1
	}
	return clampedDate(year, month, r.BaseDay)
}

// YearlyStrategy keeps the month and moves one year ahead.
type YearlyStrategy struct{}

func (YearlyStrategy) Next(r core.Recurrence, from core.Date) core.Date {
	return clampedDate(from.Year()+1, from.Month(), r.BaseDay)
}

// CustomStrategy adds IntervalDays.
type CustomStrategy struct{}

func (CustomStrategy) Next(r core.Recurrence, from core.Date) core.Date {
	return from.AddDays(r.IntervalDays)
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampedDate(year, month, day int) core.Date {
	if last := daysIn(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return core.NewDate(year, month, day)
}

var nextOccurrenceStrategies = map[core.Frequency]NextOccurrenceStrategy{
	core.Weekly:  WeeklyStrategy{},
	core.Monthly: MonthlyStrategy{},
	core.Yearly:  YearlyStrategy{},
	core.Custom:  CustomStrategy{},
}

// GetNextOccurrenceStrategy returns the strategy for a frequency.
func GetNextOccurrenceStrategy(frequency core.Frequency) (NextOccurrenceStrategy, error) {
	strategy, ok := nextOccurrenceStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return strategy, nil
}

// RegisterNextOccurrenceStrategy installs or replaces the strategy for a
// frequency.
func RegisterNextOccurrenceStrategy(frequency core.Frequency, strategy NextOccurrenceStrategy) {
	nextOccurrenceStrategies[frequency] = strategy
}

// NextOccurrence advances r by one period from its current NextOccurrence.
func NextOccurrence(r core.Recurrence) (core.Date, error) {
	strategy, err := GetNextOccurrenceStrategy(r.Frequency)
	if err != nil {
		return core.Date{}, err
	}
	next := strategy.Next(r, r.NextOccurrence)
	if !next.After(r.NextOccurrence.Time) {
		return core.Date{}, fmt.Errorf("frequency %s did not advance past %s", r.Frequency, r.NextOccurrence)
	}
	return next, nil
}
