package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
	"github.com/mlammarsch/finwise/planning-backend/internal/testutil"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyRule(start time.Time) domain.RecurrenceRule {
	return domain.RecurrenceRule{
		Pattern:         domain.PatternMonthly,
		StartDate:       start,
		End:             domain.EndNever(),
		WeekendHandling: domain.WeekendNone,
	}
}

func validCreateInput() CreatePlanningInput {
	return CreatePlanningInput{
		Name:       "Rent",
		AccountID:  1,
		Amount:     domain.ExactAmount(decimal.NewFromInt(-1200)),
		Recurrence: monthlyRule(day(2024, time.January, 1)),
	}
}

func newTestPlanningService() (*PlanningService, *testutil.MockPlanningRepository, *testutil.RecordingPublisher, *testutil.RecordingBalanceNotifier, *testutil.RecordingInvalidator) {
	repo := testutil.NewMockPlanningRepository()
	pub := &testutil.RecordingPublisher{}
	balance := &testutil.RecordingBalanceNotifier{}
	forecasts := &testutil.RecordingInvalidator{}
	svc := NewPlanningService(repo, pub, balance, forecasts)
	return svc, repo, pub, balance, forecasts
}

func TestCreatePlanning(t *testing.T) {
	svc, repo, pub, balance, _ := newTestPlanningService()

	created, err := svc.CreatePlanning(7, validCreateInput(), domain.OriginUser)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, int32(7), created.WorkspaceID)
	assert.Equal(t, "Rent", created.Name)
	assert.True(t, created.IsActive)
	assert.Len(t, repo.Entries, 1)

	require.Len(t, pub.Events, 1)
	assert.Equal(t, "planning_transaction.created", pub.Events[0].Type)
	assert.Equal(t, []string{"planning_transaction.created"}, balance.Requests)
}

func TestCreatePlanningTrimsName(t *testing.T) {
	svc, _, _, _, _ := newTestPlanningService()

	input := validCreateInput()
	input.Name = "  Rent  "
	created, err := svc.CreatePlanning(7, input, domain.OriginUser)
	require.NoError(t, err)
	assert.Equal(t, "Rent", created.Name)
}

func TestCreatePlanningValidationFailure(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *CreatePlanningInput)
		wantErr error
	}{
		{
			name:    "empty name",
			mutate:  func(in *CreatePlanningInput) { in.Name = "   " },
			wantErr: domain.ErrNameRequired,
		},
		{
			name: "invalid pattern",
			mutate: func(in *CreatePlanningInput) {
				in.Recurrence.Pattern = "fortnightly"
			},
			wantErr: domain.ErrInvalidPattern,
		},
		{
			name: "mixed amount variant",
			mutate: func(in *CreatePlanningInput) {
				v := decimal.NewFromInt(5)
				in.Amount.Approximate = &v
			},
			wantErr: domain.ErrInvalidAmountSpec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub, balance, _ := newTestPlanningService()

			input := validCreateInput()
			tt.mutate(&input)

			_, err := svc.CreatePlanning(7, input, domain.OriginUser)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.Entries)
			assert.Empty(t, pub.Events)
			assert.Zero(t, balance.Count())
		})
	}
}

func TestCreatePlanningSyncOriginStaysSilent(t *testing.T) {
	svc, repo, pub, balance, _ := newTestPlanningService()

	_, err := svc.CreatePlanning(7, validCreateInput(), domain.OriginSync)
	require.NoError(t, err)
	assert.Len(t, repo.Entries, 1)
	assert.Empty(t, pub.Events)
	assert.Zero(t, balance.Count())
}

func TestCreatePlanningBalanceFailureDoesNotFailMutation(t *testing.T) {
	svc, _, pub, balance, _ := newTestPlanningService()
	balance.FailWith = errors.New("aggregator unreachable")

	created, err := svc.CreatePlanning(7, validCreateInput(), domain.OriginUser)
	require.NoError(t, err)
	assert.NotNil(t, created)
	assert.Len(t, pub.Events, 1)
	assert.Equal(t, 1, balance.Count())
}

func TestUpdatePlanning(t *testing.T) {
	svc, _, pub, balance, forecasts := newTestPlanningService()

	created, err := svc.CreatePlanning(7, validCreateInput(), domain.OriginUser)
	require.NoError(t, err)

	updated, err := svc.UpdatePlanning(7, created.ID, UpdatePlanningInput{
		Name:       "Rent (new landlord)",
		AccountID:  created.AccountID,
		Amount:     domain.ExactAmount(decimal.NewFromInt(-1350)),
		Recurrence: monthlyRule(day(2024, time.March, 1)),
		IsActive:   true,
	}, domain.OriginUser)
	require.NoError(t, err)
	assert.Equal(t, "Rent (new landlord)", updated.Name)
	assert.True(t, updated.Amount.Resolve().Equal(decimal.NewFromInt(-1350)))

	assert.Equal(t, 1, forecasts.Count())
	assert.Equal(t, created.ID, forecasts.IDs[0])
	require.Len(t, pub.Events, 2)
	assert.Equal(t, "planning_transaction.updated", pub.Events[1].Type)
	assert.Equal(t, 2, balance.Count())
}

func TestUpdatePlanningNotFound(t *testing.T) {
	svc, _, _, _, forecasts := newTestPlanningService()

	_, err := svc.UpdatePlanning(7, uuid.New(), UpdatePlanningInput{
		Name:       "Ghost",
		Amount:     domain.ExactAmount(decimal.NewFromInt(1)),
		Recurrence: monthlyRule(day(2024, time.January, 1)),
		IsActive:   true,
	}, domain.OriginUser)
	require.ErrorIs(t, err, domain.ErrPlanningNotFound)
	assert.Zero(t, forecasts.Count())
}

func TestUpdatePlanningWrongWorkspace(t *testing.T) {
	svc, _, _, _, _ := newTestPlanningService()

	created, err := svc.CreatePlanning(7, validCreateInput(), domain.OriginUser)
	require.NoError(t, err)

	_, err = svc.UpdatePlanning(8, created.ID, UpdatePlanningInput{
		Name:       "Rent",
		Amount:     domain.ExactAmount(decimal.NewFromInt(-1200)),
		Recurrence: monthlyRule(day(2024, time.January, 1)),
		IsActive:   true,
	}, domain.OriginUser)
	require.ErrorIs(t, err, domain.ErrPlanningNotFound)
}

func TestDeletePlanning(t *testing.T) {
	svc, repo, pub, balance, forecasts := newTestPlanningService()

	created, err := svc.CreatePlanning(7, validCreateInput(), domain.OriginUser)
	require.NoError(t, err)

	require.NoError(t, svc.DeletePlanning(7, created.ID, domain.OriginUser))

	_, err = repo.GetByID(7, created.ID)
	assert.ErrorIs(t, err, domain.ErrPlanningNotFound)
	assert.Equal(t, 1, forecasts.Count())
	require.Len(t, pub.Events, 2)
	assert.Equal(t, "planning_transaction.deleted", pub.Events[1].Type)
	assert.Equal(t, 2, balance.Count())
}

// Deleting one leg of a linked transfer pair must not cascade to the
// referenced counter planning transaction.
func TestDeletePlanningCounterNotCascaded(t *testing.T) {
	svc, repo, _, _, _ := newTestPlanningService()

	counter, err := svc.CreatePlanning(7, validCreateInput(), domain.OriginUser)
	require.NoError(t, err)

	input := validCreateInput()
	input.Name = "Rent transfer leg"
	input.CounterPlanningTransactionID = &counter.ID
	leg, err := svc.CreatePlanning(7, input, domain.OriginUser)
	require.NoError(t, err)

	require.NoError(t, svc.DeletePlanning(7, leg.ID, domain.OriginUser))

	remaining, err := repo.GetByID(7, counter.ID)
	require.NoError(t, err)
	assert.Nil(t, remaining.DeletedAt)
}

func TestDeletePlanningNotFound(t *testing.T) {
	svc, _, pub, _, forecasts := newTestPlanningService()

	err := svc.DeletePlanning(7, uuid.New(), domain.OriginUser)
	require.ErrorIs(t, err, domain.ErrPlanningNotFound)
	assert.Empty(t, pub.Events)
	assert.Zero(t, forecasts.Count())
}

func TestListPlanningActiveFilter(t *testing.T) {
	svc, repo, _, _, _ := newTestPlanningService()

	active, err := svc.CreatePlanning(7, validCreateInput(), domain.OriginUser)
	require.NoError(t, err)

	input := validCreateInput()
	input.Name = "Old gym membership"
	paused, err := svc.CreatePlanning(7, input, domain.OriginUser)
	require.NoError(t, err)
	repo.Entries[1].IsActive = false

	all, err := svc.ListPlanning(7, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	activeOnly := true
	got, err := svc.ListPlanning(7, &activeOnly)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
	assert.NotEqual(t, paused.ID, got[0].ID)
}
