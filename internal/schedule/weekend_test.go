package schedule

import (
	"testing"
	"time"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
)

func TestAdjustWeekend(t *testing.T) {
	saturday := date(2024, time.March, 9)
	sunday := date(2024, time.March, 10)
	friday := date(2024, time.March, 8)
	monday := date(2024, time.March, 11)

	tests := []struct {
		name   string
		input  time.Time
		policy domain.WeekendHandling
		want   time.Time
	}{
		{"none leaves saturday", saturday, domain.WeekendNone, saturday},
		{"none leaves sunday", sunday, domain.WeekendNone, sunday},
		{"move before from saturday", saturday, domain.WeekendMoveBefore, friday},
		{"move before from sunday", sunday, domain.WeekendMoveBefore, friday},
		{"move after from saturday", saturday, domain.WeekendMoveAfter, monday},
		{"move after from sunday", sunday, domain.WeekendMoveAfter, monday},
		{"weekday untouched by move before", friday, domain.WeekendMoveBefore, friday},
		{"weekday untouched by move after", monday, domain.WeekendMoveAfter, monday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustWeekend(tt.input, tt.policy)
			if !got.Equal(tt.want) {
				t.Errorf("AdjustWeekend(%s, %s) = %s, want %s",
					tt.input.Format("2006-01-02"), tt.policy, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestAdjustWeekendNeverYieldsWeekend(t *testing.T) {
	// Sweep a full year of dates under both moving policies.
	for d := date(2024, time.January, 1); d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		for _, policy := range []domain.WeekendHandling{domain.WeekendMoveBefore, domain.WeekendMoveAfter} {
			got := AdjustWeekend(d, policy)
			if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
				t.Fatalf("AdjustWeekend(%s, %s) produced weekend date %s", d.Format("2006-01-02"), policy, got.Format("2006-01-02"))
			}
		}
	}
}
