package schedule

import (
	"fmt"
	"strings"

	"github.com/teambition/rrule-go"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
)

// rruleWeekdays maps time.Weekday indices (0 = Sunday) to RFC 5545 days
var rruleWeekdays = []rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// ExportRRule renders a recurrence rule as an RFC 5545 RRULE string for
// calendar interop. Rendering only: expansion stays in Generate, because
// RFC 5545 MONTHLY semantics skip months lacking the pinned day where
// this scheduler clamps to the month's last valid day.
func ExportRRule(rule domain.RecurrenceRule) (string, error) {
	opt := rrule.ROption{Dtstart: dateOnly(rule.StartDate)}

	var parts []string
	interval := 1

	switch rule.Pattern {
	case domain.PatternOnce:
		// A single fixed occurrence: daily frequency capped at one.
		opt.Freq = rrule.DAILY
		parts = append(parts, "FREQ=DAILY", "COUNT=1")
		opt.Count = 1
	case domain.PatternDaily:
		opt.Freq = rrule.DAILY
		parts = append(parts, "FREQ=DAILY")
	case domain.PatternWeekly:
		opt.Freq = rrule.WEEKLY
		parts = append(parts, "FREQ=WEEKLY")
	case domain.PatternBiweekly:
		opt.Freq = rrule.WEEKLY
		interval = 2
		parts = append(parts, "FREQ=WEEKLY")
	case domain.PatternMonthly:
		opt.Freq = rrule.MONTHLY
		parts = append(parts, "FREQ=MONTHLY")
	case domain.PatternQuarterly:
		opt.Freq = rrule.MONTHLY
		interval = 3
		parts = append(parts, "FREQ=MONTHLY")
	case domain.PatternYearly:
		opt.Freq = rrule.YEARLY
		parts = append(parts, "FREQ=YEARLY")
	default:
		return "", fmt.Errorf("%w: pattern %q", domain.ErrInvalidPattern, rule.Pattern)
	}

	opt.Interval = interval
	if interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", interval))
	}

	if rule.ExecutionDay != nil && rule.Pattern != domain.PatternOnce {
		day := int(*rule.ExecutionDay)
		switch rule.Pattern {
		case domain.PatternWeekly, domain.PatternBiweekly:
			wd := rruleWeekdays[day]
			opt.Byweekday = []rrule.Weekday{wd}
			parts = append(parts, fmt.Sprintf("BYDAY=%s", wd))
		case domain.PatternMonthly, domain.PatternQuarterly, domain.PatternYearly:
			opt.Bymonthday = []int{day}
			parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d", day))
		}
	}

	if rule.Pattern != domain.PatternOnce {
		switch rule.End.Type {
		case domain.EndTypeOnDate:
			until := dateOnly(*rule.End.Date)
			opt.Until = until
			parts = append(parts, fmt.Sprintf("UNTIL=%s", until.UTC().Format("20060102T150405Z")))
		case domain.EndTypeAfterOccurrences:
			opt.Count = int(*rule.End.Count)
			parts = append(parts, fmt.Sprintf("COUNT=%d", *rule.End.Count))
		}
	}

	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidRule, err)
	}

	return strings.Join(parts, ";"), nil
}
