package schedule

import (
	"testing"
	"time"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
)

func TestExportRRule(t *testing.T) {
	tests := []struct {
		name string
		rule domain.RecurrenceRule
		want string
	}{
		{
			name: "monthly pinned with count",
			rule: domain.RecurrenceRule{
				Pattern:      domain.PatternMonthly,
				StartDate:    date(2024, time.January, 15),
				End:          domain.EndAfter(3),
				ExecutionDay: int32p(15),
			},
			want: "FREQ=MONTHLY;BYMONTHDAY=15;COUNT=3",
		},
		{
			name: "biweekly on friday",
			rule: domain.RecurrenceRule{
				Pattern:      domain.PatternBiweekly,
				StartDate:    date(2024, time.March, 1),
				End:          domain.EndNever(),
				ExecutionDay: int32p(5),
			},
			want: "FREQ=WEEKLY;INTERVAL=2;BYDAY=FR",
		},
		{
			name: "quarterly until end date",
			rule: domain.RecurrenceRule{
				Pattern:   domain.PatternQuarterly,
				StartDate: date(2024, time.January, 31),
				End:       domain.EndOn(date(2025, time.January, 31)),
			},
			want: "FREQ=MONTHLY;INTERVAL=3;UNTIL=20250131T000000Z",
		},
		{
			name: "once",
			rule: domain.RecurrenceRule{
				Pattern:   domain.PatternOnce,
				StartDate: date(2024, time.June, 10),
				End:       domain.EndNever(),
			},
			want: "FREQ=DAILY;COUNT=1",
		},
		{
			name: "yearly",
			rule: domain.RecurrenceRule{
				Pattern:   domain.PatternYearly,
				StartDate: date(2024, time.February, 29),
				End:       domain.EndNever(),
			},
			want: "FREQ=YEARLY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExportRRule(tt.rule)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ExportRRule = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExportRRuleUnknownPattern(t *testing.T) {
	_, err := ExportRRule(domain.RecurrenceRule{
		Pattern:   "fortnightly",
		StartDate: date(2024, time.January, 1),
	})
	if err == nil {
		t.Fatal("Expected error for unknown pattern")
	}
}
