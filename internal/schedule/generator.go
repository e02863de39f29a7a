package schedule

import (
	"fmt"
	"time"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
)

// RawOccurrence is a generated date before weekend adjustment.
// Index is the 0-based position within the rule's full expansion,
// counted from the rule's start date regardless of the requested window.
type RawOccurrence struct {
	Date  time.Time
	Index int
}

// Generate expands a recurrence rule into the ordered sequence of raw
// dates falling inside [windowStart, windowEnd]. Occurrence counting for
// count-limited rules always starts at the rule's start date; the window
// only filters the output, it never changes which occurrences count.
// The rule is assumed validated. Generation is pure and restartable.
func Generate(rule domain.RecurrenceRule, windowStart, windowEnd time.Time) ([]RawOccurrence, error) {
	if windowStart.IsZero() || windowEnd.IsZero() {
		return nil, fmt.Errorf("%w: window bounds are required", domain.ErrProjectionBounds)
	}
	if windowEnd.Before(windowStart) {
		return nil, fmt.Errorf("%w: window end precedes window start", domain.ErrProjectionBounds)
	}

	windowStart = dateOnly(windowStart)
	windowEnd = dateOnly(windowEnd)
	start := dateOnly(rule.StartDate)

	// Once yields the start date or nothing, independent of end condition.
	if rule.Pattern == domain.PatternOnce {
		if start.Before(windowStart) || start.After(windowEnd) {
			return nil, nil
		}
		return []RawOccurrence{{Date: start, Index: 0}}, nil
	}

	var endDate *time.Time
	if rule.End.Type == domain.EndTypeOnDate {
		d := dateOnly(*rule.End.Date)
		endDate = &d
	}
	maxCount := -1
	if rule.End.Type == domain.EndTypeAfterOccurrences {
		maxCount = int(*rule.End.Count)
	}

	day := pinnedDay(rule, start)
	anchor := firstOccurrence(rule, start, day)

	var out []RawOccurrence
	for i := 0; ; i++ {
		if maxCount >= 0 && i >= maxCount {
			break
		}

		d := occurrenceAt(rule, anchor, day, i)
		if endDate != nil && d.After(*endDate) {
			break
		}
		// Dates are ascending, so passing the window end terminates
		// without materializing further history.
		if d.After(windowEnd) {
			break
		}
		if d.Before(windowStart) {
			continue
		}

		out = append(out, RawOccurrence{Date: d, Index: i})
	}

	return out, nil
}

// firstOccurrence returns the rule's first eligible date on/after start
func firstOccurrence(rule domain.RecurrenceRule, start time.Time, day int) time.Time {
	switch rule.Pattern {
	case domain.PatternWeekly, domain.PatternBiweekly:
		if rule.ExecutionDay == nil {
			return start
		}
		target := time.Weekday(*rule.ExecutionDay)
		offset := (int(target) - int(start.Weekday()) + 7) % 7
		return start.AddDate(0, 0, offset)

	case domain.PatternMonthly, domain.PatternQuarterly:
		d := clampedDayOfMonth(start.Year(), start.Month(), day)
		if d.Before(start) {
			step := 1
			if rule.Pattern == domain.PatternQuarterly {
				step = 3
			}
			d = clampedDayOfMonth(start.Year(), start.Month()+time.Month(step), day)
		}
		return d

	case domain.PatternYearly:
		d := clampedDayOfMonth(start.Year(), start.Month(), day)
		if d.Before(start) {
			d = clampedDayOfMonth(start.Year()+1, start.Month(), day)
		}
		return d

	default: // daily
		return start
	}
}

// occurrenceAt returns the i-th date of the expansion anchored at first.
// Month-based patterns step from the anchor's year/month but re-apply the
// pinned day each time: an anchor clamped into a short month (a day-31
// rule anchored in February) must recover day 31 in longer months.
func occurrenceAt(rule domain.RecurrenceRule, first time.Time, day, i int) time.Time {
	switch rule.Pattern {
	case domain.PatternDaily:
		return first.AddDate(0, 0, i)
	case domain.PatternWeekly:
		return first.AddDate(0, 0, 7*i)
	case domain.PatternBiweekly:
		return first.AddDate(0, 0, 14*i)
	case domain.PatternMonthly:
		return clampedDayOfMonth(first.Year(), first.Month()+time.Month(i), day)
	case domain.PatternQuarterly:
		return clampedDayOfMonth(first.Year(), first.Month()+time.Month(3*i), day)
	case domain.PatternYearly:
		return clampedDayOfMonth(first.Year()+i, first.Month(), day)
	default:
		return first
	}
}

// pinnedDay is the day-of-month a month-based rule pins to: the explicit
// execution day when set, otherwise the start date's day component.
func pinnedDay(rule domain.RecurrenceRule, start time.Time) int {
	if rule.ExecutionDay != nil {
		return int(*rule.ExecutionDay)
	}
	return start.Day()
}

// clampedDayOfMonth builds a date pinned to day within year/month,
// clamped to the month's last valid day (day 31 in February yields
// Feb 28/29). Month values outside 1-12 normalize across year bounds.
func clampedDayOfMonth(year int, month time.Month, day int) time.Time {
	norm := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	// Day 0 of the next month is the last day of this one.
	lastDay := time.Date(norm.Year(), norm.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	if day < 1 {
		day = 1
	}

	return time.Date(norm.Year(), norm.Month(), day, 0, 0, 0, 0, time.UTC)
}

// dateOnly truncates a timestamp to its UTC calendar date
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
