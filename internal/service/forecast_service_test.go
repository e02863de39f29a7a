package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
	"github.com/mlammarsch/finwise/planning-backend/internal/testutil"
)

func planningWith(workspaceID int32, name string, amount domain.AmountSpec, rule domain.RecurrenceRule) *domain.PlanningTransaction {
	return &domain.PlanningTransaction{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Name:        name,
		AccountID:   1,
		Amount:      amount,
		Recurrence:  rule,
		IsActive:    true,
	}
}

func TestForecastProject(t *testing.T) {
	repo := testutil.NewMockPlanningRepository()
	repo.AddPlanning(planningWith(7, "Rent",
		domain.ExactAmount(decimal.NewFromInt(-1200)),
		monthlyRule(day(2024, time.January, 1))))
	repo.AddPlanning(planningWith(7, "Salary",
		domain.ExactAmount(decimal.NewFromInt(3000)),
		monthlyRule(day(2024, time.January, 25))))

	svc := NewForecastService(repo, 0)

	occ, err := svc.Project(7, day(2024, time.January, 1), day(2024, time.March, 31))
	require.NoError(t, err)
	require.Len(t, occ, 6)

	wantDates := []time.Time{
		day(2024, time.January, 1),
		day(2024, time.January, 25),
		day(2024, time.February, 1),
		day(2024, time.February, 25),
		day(2024, time.March, 1),
		day(2024, time.March, 25),
	}
	for i, want := range wantDates {
		assert.Equal(t, want, occ[i].Date, "occurrence %d", i)
	}
	assert.True(t, occ[0].Amount.Equal(decimal.NewFromInt(-1200)))
	assert.True(t, occ[1].Amount.Equal(decimal.NewFromInt(3000)))
}

func TestForecastProjectTieBreakByInsertionOrder(t *testing.T) {
	repo := testutil.NewMockPlanningRepository()
	first := planningWith(7, "Rent",
		domain.ExactAmount(decimal.NewFromInt(-1200)),
		monthlyRule(day(2024, time.January, 15)))
	second := planningWith(7, "Insurance",
		domain.ExactAmount(decimal.NewFromInt(-80)),
		monthlyRule(day(2024, time.January, 15)))
	repo.AddPlanning(first)
	repo.AddPlanning(second)

	svc := NewForecastService(repo, 0)

	occ, err := svc.Project(7, day(2024, time.January, 1), day(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, first.ID, occ[0].PlanningTransactionID)
	assert.Equal(t, second.ID, occ[1].PlanningTransactionID)
}

func TestForecastProjectSkipsInactive(t *testing.T) {
	repo := testutil.NewMockPlanningRepository()
	pt := planningWith(7, "Paused", domain.ExactAmount(decimal.NewFromInt(-10)),
		monthlyRule(day(2024, time.January, 1)))
	pt.IsActive = false
	repo.AddPlanning(pt)

	svc := NewForecastService(repo, 0)

	occ, err := svc.Project(7, day(2024, time.January, 1), day(2024, time.December, 31))
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestForecastProjectRangeAmountMidpoint(t *testing.T) {
	repo := testutil.NewMockPlanningRepository()
	repo.AddPlanning(planningWith(7, "Groceries",
		domain.RangeAmount(decimal.NewFromInt(-500), decimal.NewFromInt(-300)),
		monthlyRule(day(2024, time.January, 1))))

	svc := NewForecastService(repo, 0)

	occ, err := svc.Project(7, day(2024, time.January, 1), day(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.True(t, occ[0].Amount.Equal(decimal.NewFromInt(-400)), "got %s", occ[0].Amount)
}

func TestForecastProjectWeekendAdjustment(t *testing.T) {
	repo := testutil.NewMockPlanningRepository()
	rule := monthlyRule(day(2024, time.March, 31)) // a Sunday
	rule.WeekendHandling = domain.WeekendMoveBefore
	repo.AddPlanning(planningWith(7, "Quarterly fee",
		domain.ExactAmount(decimal.NewFromInt(-45)), rule))

	svc := NewForecastService(repo, 0)

	occ, err := svc.Project(7, day(2024, time.March, 1), day(2024, time.March, 31))
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, day(2024, time.March, 29), occ[0].Date)
	assert.Equal(t, day(2024, time.March, 31), occ[0].RawDate)
}

func TestForecastProjectBounds(t *testing.T) {
	svc := NewForecastService(testutil.NewMockPlanningRepository(), 0)

	_, err := svc.Project(7, time.Time{}, day(2024, time.January, 31))
	assert.ErrorIs(t, err, domain.ErrProjectionBounds)

	_, err = svc.Project(7, day(2024, time.February, 1), day(2024, time.January, 1))
	assert.ErrorIs(t, err, domain.ErrProjectionBounds)

	_, err = svc.Project(7, day(2024, time.January, 1), day(2035, time.January, 2))
	assert.ErrorIs(t, err, domain.ErrProjectionBounds)
}

func TestForecastCacheInvalidate(t *testing.T) {
	repo := testutil.NewMockPlanningRepository()
	pt := planningWith(7, "Rent", domain.ExactAmount(decimal.NewFromInt(-1200)),
		monthlyRule(day(2024, time.January, 1)))
	repo.AddPlanning(pt)

	svc := NewForecastService(repo, 0)

	start, end := day(2024, time.January, 1), day(2024, time.March, 31)
	occ, err := svc.Project(7, start, end)
	require.NoError(t, err)
	require.Len(t, occ, 3)

	// Mutate the stored rule behind the cache's back: the stale window
	// keeps serving cached occurrences until invalidated.
	repo.Entries[0].Recurrence = monthlyRule(day(2024, time.February, 1))

	occ, err = svc.Project(7, start, end)
	require.NoError(t, err)
	assert.Len(t, occ, 3)

	svc.Invalidate(7, pt.ID)

	occ, err = svc.Project(7, start, end)
	require.NoError(t, err)
	assert.Len(t, occ, 2)
}

func TestForecastCacheWindowChangeBypassesStaleEntry(t *testing.T) {
	repo := testutil.NewMockPlanningRepository()
	repo.AddPlanning(planningWith(7, "Rent",
		domain.ExactAmount(decimal.NewFromInt(-1200)),
		monthlyRule(day(2024, time.January, 1))))

	svc := NewForecastService(repo, 0)

	occ, err := svc.Project(7, day(2024, time.January, 1), day(2024, time.March, 31))
	require.NoError(t, err)
	require.Len(t, occ, 3)

	occ, err = svc.Project(7, day(2024, time.January, 1), day(2024, time.June, 30))
	require.NoError(t, err)
	assert.Len(t, occ, 6)
}

func TestProjectTransactions(t *testing.T) {
	active := planningWith(7, "Rent", domain.ExactAmount(decimal.NewFromInt(-1200)),
		monthlyRule(day(2024, time.January, 1)))
	inactive := planningWith(7, "Paused", domain.ExactAmount(decimal.NewFromInt(-10)),
		monthlyRule(day(2024, time.January, 1)))
	inactive.IsActive = false

	occ, err := ProjectTransactions(
		[]*domain.PlanningTransaction{active, inactive},
		day(2024, time.January, 1), day(2024, time.February, 29))
	require.NoError(t, err)
	require.Len(t, occ, 2)
	for _, o := range occ {
		assert.Equal(t, active.ID, o.PlanningTransactionID)
	}
}
