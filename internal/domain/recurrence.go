package domain

import (
	"fmt"
	"time"
)

type RecurrencePattern string

const (
	PatternOnce      RecurrencePattern = "once"
	PatternDaily     RecurrencePattern = "daily"
	PatternWeekly    RecurrencePattern = "weekly"
	PatternBiweekly  RecurrencePattern = "biweekly"
	PatternMonthly   RecurrencePattern = "monthly"
	PatternQuarterly RecurrencePattern = "quarterly"
	PatternYearly    RecurrencePattern = "yearly"
)

// IsValid reports whether p is a known recurrence pattern
func (p RecurrencePattern) IsValid() bool {
	switch p {
	case PatternOnce, PatternDaily, PatternWeekly, PatternBiweekly,
		PatternMonthly, PatternQuarterly, PatternYearly:
		return true
	}
	return false
}

type EndType string

const (
	EndTypeNever            EndType = "never"
	EndTypeOnDate           EndType = "on_date"
	EndTypeAfterOccurrences EndType = "after_occurrences"
)

// EndCondition describes when a recurrence rule stops producing
// occurrences. Build values with EndNever, EndOn or EndAfter so that
// only the fields belonging to the chosen variant are populated.
type EndCondition struct {
	Type  EndType    `json:"type"`
	Date  *time.Time `json:"date,omitempty"`
	Count *int32     `json:"count,omitempty"`
}

// EndNever returns an end condition that never terminates the rule
func EndNever() EndCondition {
	return EndCondition{Type: EndTypeNever}
}

// EndOn returns an end condition terminating on the given date (inclusive)
func EndOn(date time.Time) EndCondition {
	d := date
	return EndCondition{Type: EndTypeOnDate, Date: &d}
}

// EndAfter returns an end condition terminating after n occurrences
func EndAfter(n int32) EndCondition {
	c := n
	return EndCondition{Type: EndTypeAfterOccurrences, Count: &c}
}

type WeekendHandling string

const (
	WeekendNone       WeekendHandling = "none"
	WeekendMoveBefore WeekendHandling = "move_before"
	WeekendMoveAfter  WeekendHandling = "move_after"
)

// IsValid reports whether w is a known weekend handling policy
func (w WeekendHandling) IsValid() bool {
	switch w {
	case WeekendNone, WeekendMoveBefore, WeekendMoveAfter:
		return true
	}
	return false
}

// RecurrenceRule describes how a planning transaction repeats.
// StartDate anchors the expansion; ExecutionDay optionally pins the
// occurrence day independent of StartDate's day component: a
// day-of-month (1-31) for monthly/quarterly/yearly patterns, a
// time.Weekday index (0 = Sunday) for weekly/biweekly patterns.
type RecurrenceRule struct {
	Pattern         RecurrencePattern `json:"pattern"`
	StartDate       time.Time         `json:"startDate"`
	End             EndCondition      `json:"end"`
	ExecutionDay    *int32            `json:"executionDay,omitempty"`
	WeekendHandling WeekendHandling   `json:"weekendHandling"`
}

// Validate checks the rule's internal consistency. It is pure and is
// called by the planning service before every persisted write.
func (r RecurrenceRule) Validate() error {
	if !r.Pattern.IsValid() {
		return fmt.Errorf("%w: pattern %q", ErrInvalidPattern, r.Pattern)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidRule)
	}
	if !r.WeekendHandling.IsValid() {
		return fmt.Errorf("%w: weekend handling %q", ErrInvalidRule, r.WeekendHandling)
	}

	switch r.End.Type {
	case EndTypeNever:
		if r.End.Date != nil || r.End.Count != nil {
			return fmt.Errorf("%w: never-ending rule carries end fields", ErrInvalidEndCondition)
		}
	case EndTypeOnDate:
		if r.End.Date == nil {
			return fmt.Errorf("%w: end date is required", ErrInvalidEndCondition)
		}
		if r.End.Count != nil {
			return fmt.Errorf("%w: on-date rule carries a count", ErrInvalidEndCondition)
		}
		if r.End.Date.Before(r.StartDate) {
			return fmt.Errorf("%w: end date precedes start date", ErrInvalidEndCondition)
		}
	case EndTypeAfterOccurrences:
		if r.End.Count == nil {
			return fmt.Errorf("%w: occurrence count is required", ErrInvalidEndCondition)
		}
		if r.End.Date != nil {
			return fmt.Errorf("%w: counted rule carries an end date", ErrInvalidEndCondition)
		}
		if *r.End.Count < 1 {
			return fmt.Errorf("%w: occurrence count %d < 1", ErrInvalidEndCondition, *r.End.Count)
		}
		if r.Pattern == PatternOnce && *r.End.Count != 1 {
			return fmt.Errorf("%w: once pattern with count %d", ErrInvalidEndCondition, *r.End.Count)
		}
	default:
		return fmt.Errorf("%w: end type %q", ErrInvalidEndCondition, r.End.Type)
	}

	if r.ExecutionDay != nil {
		day := *r.ExecutionDay
		switch r.Pattern {
		case PatternWeekly, PatternBiweekly:
			if day < 0 || day > 6 {
				return fmt.Errorf("%w: weekday %d", ErrInvalidExecutionDay, day)
			}
		case PatternMonthly, PatternQuarterly, PatternYearly:
			if day < 1 || day > 31 {
				return fmt.Errorf("%w: day-of-month %d", ErrInvalidExecutionDay, day)
			}
		default:
			return fmt.Errorf("%w: pattern %q does not use an execution day", ErrInvalidExecutionDay, r.Pattern)
		}
	}

	return nil
}
