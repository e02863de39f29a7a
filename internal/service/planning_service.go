package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
	"github.com/mlammarsch/finwise/planning-backend/internal/websocket"
)

// BalanceNotifier signals the external balance aggregation collaborator
// that planning data changed. The signal is fire-and-forget: a failure is
// logged and never affects the mutation that triggered it.
type BalanceNotifier interface {
	RequestRecalculation(workspaceID int32, reason string) error
}

// ForecastInvalidator drops cached occurrences for a planning transaction
type ForecastInvalidator interface {
	Invalidate(workspaceID int32, id uuid.UUID)
}

// PlanningService handles planning transaction business logic
type PlanningService struct {
	planningRepo domain.PlanningRepository
	events       websocket.EventPublisher
	balance      BalanceNotifier
	forecasts    ForecastInvalidator
}

// NewPlanningService creates a new PlanningService
func NewPlanningService(
	planningRepo domain.PlanningRepository,
	events websocket.EventPublisher,
	balance BalanceNotifier,
	forecasts ForecastInvalidator,
) *PlanningService {
	return &PlanningService{
		planningRepo: planningRepo,
		events:       events,
		balance:      balance,
		forecasts:    forecasts,
	}
}

// CreatePlanningInput holds the input for creating a planning transaction
type CreatePlanningInput struct {
	Name                         string
	AccountID                    int32
	CategoryID                   *int32
	RecipientID                  *int32
	TagIDs                       []string
	Amount                       domain.AmountSpec
	Recurrence                   domain.RecurrenceRule
	ForecastOnly                 bool
	AutoExecute                  bool
	CounterPlanningTransactionID *uuid.UUID
	Note                         *string
}

// CreatePlanning validates and persists a new planning transaction
func (s *PlanningService) CreatePlanning(workspaceID int32, input CreatePlanningInput, origin domain.MutationOrigin) (*domain.PlanningTransaction, error) {
	pt := &domain.PlanningTransaction{
		WorkspaceID:                  workspaceID,
		Name:                         strings.TrimSpace(input.Name),
		AccountID:                    input.AccountID,
		CategoryID:                   input.CategoryID,
		RecipientID:                  input.RecipientID,
		TagIDs:                       input.TagIDs,
		Amount:                       input.Amount,
		Recurrence:                   input.Recurrence,
		IsActive:                     true,
		ForecastOnly:                 input.ForecastOnly,
		AutoExecute:                  input.AutoExecute,
		CounterPlanningTransactionID: input.CounterPlanningTransactionID,
		Note:                         input.Note,
	}

	if err := pt.Validate(); err != nil {
		return nil, err
	}

	created, err := s.planningRepo.Create(pt)
	if err != nil {
		return nil, err
	}

	s.notify(workspaceID, origin, websocket.PlanningCreated(created), "planning_transaction.created")
	return created, nil
}

// ListPlanning retrieves all planning transactions for a workspace in
// insertion order
func (s *PlanningService) ListPlanning(workspaceID int32, activeOnly *bool) ([]*domain.PlanningTransaction, error) {
	return s.planningRepo.ListByWorkspace(workspaceID, activeOnly)
}

// GetPlanningByID retrieves a planning transaction by ID
func (s *PlanningService) GetPlanningByID(workspaceID int32, id uuid.UUID) (*domain.PlanningTransaction, error) {
	return s.planningRepo.GetByID(workspaceID, id)
}

// UpdatePlanningInput holds the input for updating a planning transaction
type UpdatePlanningInput struct {
	Name                         string
	AccountID                    int32
	CategoryID                   *int32
	RecipientID                  *int32
	TagIDs                       []string
	Amount                       domain.AmountSpec
	Recurrence                   domain.RecurrenceRule
	IsActive                     bool
	ForecastOnly                 bool
	AutoExecute                  bool
	CounterPlanningTransactionID *uuid.UUID
	Note                         *string
}

// UpdatePlanning replaces the mutable fields of an existing planning
// transaction. Changing the recurrence rule re-triggers projection by
// invalidating the forecast cache for this id.
func (s *PlanningService) UpdatePlanning(workspaceID int32, id uuid.UUID, input UpdatePlanningInput, origin domain.MutationOrigin) (*domain.PlanningTransaction, error) {
	existing, err := s.planningRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.AccountID = input.AccountID
	existing.CategoryID = input.CategoryID
	existing.RecipientID = input.RecipientID
	existing.TagIDs = input.TagIDs
	existing.Amount = input.Amount
	existing.Recurrence = input.Recurrence
	existing.IsActive = input.IsActive
	existing.ForecastOnly = input.ForecastOnly
	existing.AutoExecute = input.AutoExecute
	existing.CounterPlanningTransactionID = input.CounterPlanningTransactionID
	existing.Note = input.Note

	if err := existing.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.planningRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	s.forecasts.Invalidate(workspaceID, id)
	s.notify(workspaceID, origin, websocket.PlanningUpdated(updated), "planning_transaction.updated")
	return updated, nil
}

// DeletePlanning soft-deletes a planning transaction and drops its cached
// forecast occurrences. A linked counter planning transaction is left
// untouched: the relation is a reference, not ownership, and the caller
// deletes the other leg explicitly if both should go.
func (s *PlanningService) DeletePlanning(workspaceID int32, id uuid.UUID, origin domain.MutationOrigin) error {
	if err := s.planningRepo.Delete(workspaceID, id); err != nil {
		return err
	}

	s.forecasts.Invalidate(workspaceID, id)
	s.notify(workspaceID, origin, websocket.PlanningDeleted(map[string]string{"id": id.String()}), "planning_transaction.deleted")
	return nil
}

// notify is the single policy point for post-mutation signals. Sync-replay
// mutations stay silent: the sync caller requests one bulk recalculation
// after its batch instead of one per replayed write.
func (s *PlanningService) notify(workspaceID int32, origin domain.MutationOrigin, event websocket.Event, reason string) {
	if origin == domain.OriginSync {
		return
	}

	s.events.Publish(workspaceID, event)

	if err := s.balance.RequestRecalculation(workspaceID, reason); err != nil {
		log.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("reason", reason).
			Msg("Balance recalculation trigger failed")
	}
}
