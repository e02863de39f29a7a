package schedule

import (
	"time"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
)

// AdjustWeekend shifts a date off Saturday/Sunday according to policy.
// MOVE_BEFORE lands on the preceding Friday, MOVE_AFTER on the following
// Monday. The shifted date cannot itself be a weekend, so no recursion
// is needed. Adjustment runs after month-end clamping, never before.
func AdjustWeekend(date time.Time, policy domain.WeekendHandling) time.Time {
	switch policy {
	case domain.WeekendMoveBefore:
		switch date.Weekday() {
		case time.Saturday:
			return date.AddDate(0, 0, -1)
		case time.Sunday:
			return date.AddDate(0, 0, -2)
		}
	case domain.WeekendMoveAfter:
		switch date.Weekday() {
		case time.Saturday:
			return date.AddDate(0, 0, 2)
		case time.Sunday:
			return date.AddDate(0, 0, 1)
		}
	}
	return date
}
