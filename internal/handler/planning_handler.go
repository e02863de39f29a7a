package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
	"github.com/mlammarsch/finwise/planning-backend/internal/middleware"
	"github.com/mlammarsch/finwise/planning-backend/internal/schedule"
	"github.com/mlammarsch/finwise/planning-backend/internal/service"
)

// MutationOriginHeader marks sync-replay writes; those skip the balance
// recalculation trigger and WebSocket fanout.
const MutationOriginHeader = "X-Mutation-Origin"

// PlanningHandler handles planning transaction HTTP requests
type PlanningHandler struct {
	planningService *service.PlanningService
}

// NewPlanningHandler creates a new PlanningHandler
func NewPlanningHandler(planningService *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{
		planningService: planningService,
	}
}

// AmountRequest represents the amount portion of a planning request body.
// Decimal values travel as strings.
type AmountRequest struct {
	Type        string  `json:"type"`
	Value       *string `json:"value,omitempty"`
	Approximate *string `json:"approximate,omitempty"`
	Min         *string `json:"min,omitempty"`
	Max         *string `json:"max,omitempty"`
}

// RecurrenceRequest represents the recurrence portion of a planning request body
type RecurrenceRequest struct {
	Pattern         string     `json:"pattern"`
	StartDate       time.Time  `json:"startDate"`
	EndType         string     `json:"endType"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	EndCount        *int32     `json:"endCount,omitempty"`
	ExecutionDay    *int32     `json:"executionDay,omitempty"`
	WeekendHandling string     `json:"weekendHandling,omitempty"`
}

// CreatePlanningRequest represents the create planning transaction request body
type CreatePlanningRequest struct {
	Name                         string            `json:"name"`
	AccountID                    int32             `json:"accountId"`
	CategoryID                   *int32            `json:"categoryId,omitempty"`
	RecipientID                  *int32            `json:"recipientId,omitempty"`
	TagIDs                       []string          `json:"tagIds,omitempty"`
	Amount                       AmountRequest     `json:"amount"`
	Recurrence                   RecurrenceRequest `json:"recurrence"`
	ForecastOnly                 bool              `json:"forecastOnly"`
	AutoExecute                  bool              `json:"autoExecute"`
	CounterPlanningTransactionID *uuid.UUID        `json:"counterPlanningTransactionId,omitempty"`
	Note                         *string           `json:"note,omitempty"`
}

// UpdatePlanningRequest represents the update planning transaction request body
type UpdatePlanningRequest struct {
	Name                         string            `json:"name"`
	AccountID                    int32             `json:"accountId"`
	CategoryID                   *int32            `json:"categoryId,omitempty"`
	RecipientID                  *int32            `json:"recipientId,omitempty"`
	TagIDs                       []string          `json:"tagIds,omitempty"`
	Amount                       AmountRequest     `json:"amount"`
	Recurrence                   RecurrenceRequest `json:"recurrence"`
	IsActive                     bool              `json:"isActive"`
	ForecastOnly                 bool              `json:"forecastOnly"`
	AutoExecute                  bool              `json:"autoExecute"`
	CounterPlanningTransactionID *uuid.UUID        `json:"counterPlanningTransactionId,omitempty"`
	Note                         *string           `json:"note,omitempty"`
}

// AmountResponse mirrors AmountRequest in API responses
type AmountResponse struct {
	Type        string  `json:"type"`
	Value       *string `json:"value,omitempty"`
	Approximate *string `json:"approximate,omitempty"`
	Min         *string `json:"min,omitempty"`
	Max         *string `json:"max,omitempty"`
}

// RecurrenceResponse mirrors RecurrenceRequest in API responses
type RecurrenceResponse struct {
	Pattern         string  `json:"pattern"`
	StartDate       string  `json:"startDate"`
	EndType         string  `json:"endType"`
	EndDate         *string `json:"endDate,omitempty"`
	EndCount        *int32  `json:"endCount,omitempty"`
	ExecutionDay    *int32  `json:"executionDay,omitempty"`
	WeekendHandling string  `json:"weekendHandling"`
}

// PlanningResponse represents a planning transaction in API responses
type PlanningResponse struct {
	ID                           string             `json:"id"`
	WorkspaceID                  int32              `json:"workspaceId"`
	Name                         string             `json:"name"`
	AccountID                    int32              `json:"accountId"`
	CategoryID                   *int32             `json:"categoryId,omitempty"`
	RecipientID                  *int32             `json:"recipientId,omitempty"`
	TagIDs                       []string           `json:"tagIds"`
	Amount                       AmountResponse     `json:"amount"`
	Recurrence                   RecurrenceResponse `json:"recurrence"`
	IsActive                     bool               `json:"isActive"`
	ForecastOnly                 bool               `json:"forecastOnly"`
	AutoExecute                  bool               `json:"autoExecute"`
	CounterPlanningTransactionID *string            `json:"counterPlanningTransactionId,omitempty"`
	Note                         *string            `json:"note,omitempty"`
	CreatedAt                    string             `json:"createdAt"`
	UpdatedAt                    string             `json:"updatedAt"`
}

// PlanningListResponse represents the list response
type PlanningListResponse struct {
	Data []PlanningResponse `json:"data"`
}

// RRuleResponse represents the RFC 5545 rendering of a recurrence rule
type RRuleResponse struct {
	ID    string `json:"id"`
	RRule string `json:"rrule"`
}

// CreatePlanning handles POST /api/v1/planning-transactions
func (h *PlanningHandler) CreatePlanning(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreatePlanningRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, verr := parseAmount(req.Amount)
	if verr != nil {
		return NewValidationError(c, "Invalid amount", verr)
	}

	input := service.CreatePlanningInput{
		Name:                         req.Name,
		AccountID:                    req.AccountID,
		CategoryID:                   req.CategoryID,
		RecipientID:                  req.RecipientID,
		TagIDs:                       req.TagIDs,
		Amount:                       amount,
		Recurrence:                   parseRecurrence(req.Recurrence),
		ForecastOnly:                 req.ForecastOnly,
		AutoExecute:                  req.AutoExecute,
		CounterPlanningTransactionID: req.CounterPlanningTransactionID,
		Note:                         req.Note,
	}

	pt, err := h.planningService.CreatePlanning(workspaceID, input, mutationOrigin(c))
	if err != nil {
		return h.handleServiceError(c, err, workspaceID, "create planning transaction")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("planning_id", pt.ID.String()).Str("name", pt.Name).Msg("Planning transaction created")

	return c.JSON(http.StatusCreated, toPlanningResponse(pt))
}

// GetPlanningTransactions handles GET /api/v1/planning-transactions
func (h *PlanningHandler) GetPlanningTransactions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var activeOnly *bool
	if activeParam := c.QueryParam("active"); activeParam != "" {
		active := activeParam == "true"
		activeOnly = &active
	}

	pts, err := h.planningService.ListPlanning(workspaceID, activeOnly)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get planning transactions")
		return NewInternalError(c, "Failed to get planning transactions")
	}

	response := make([]PlanningResponse, len(pts))
	for i, pt := range pts {
		response[i] = toPlanningResponse(pt)
	}

	return c.JSON(http.StatusOK, PlanningListResponse{Data: response})
}

// GetPlanningTransaction handles GET /api/v1/planning-transactions/:id
func (h *PlanningHandler) GetPlanningTransaction(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid planning transaction ID", nil)
	}

	pt, err := h.planningService.GetPlanningByID(workspaceID, id)
	if err != nil {
		if errors.Is(err, domain.ErrPlanningNotFound) {
			return NewNotFoundError(c, "Planning transaction not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("planning_id", id.String()).Msg("Failed to get planning transaction")
		return NewInternalError(c, "Failed to get planning transaction")
	}

	return c.JSON(http.StatusOK, toPlanningResponse(pt))
}

// GetPlanningRRule handles GET /api/v1/planning-transactions/:id/rrule
func (h *PlanningHandler) GetPlanningRRule(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid planning transaction ID", nil)
	}

	pt, err := h.planningService.GetPlanningByID(workspaceID, id)
	if err != nil {
		if errors.Is(err, domain.ErrPlanningNotFound) {
			return NewNotFoundError(c, "Planning transaction not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("planning_id", id.String()).Msg("Failed to get planning transaction")
		return NewInternalError(c, "Failed to get planning transaction")
	}

	rrule, err := schedule.ExportRRule(pt.Recurrence)
	if err != nil {
		log.Error().Err(err).Str("planning_id", id.String()).Msg("Failed to render recurrence rule")
		return NewInternalError(c, "Failed to render recurrence rule")
	}

	return c.JSON(http.StatusOK, RRuleResponse{ID: pt.ID.String(), RRule: rrule})
}

// UpdatePlanning handles PUT /api/v1/planning-transactions/:id
func (h *PlanningHandler) UpdatePlanning(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid planning transaction ID", nil)
	}

	var req UpdatePlanningRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, verr := parseAmount(req.Amount)
	if verr != nil {
		return NewValidationError(c, "Invalid amount", verr)
	}

	input := service.UpdatePlanningInput{
		Name:                         req.Name,
		AccountID:                    req.AccountID,
		CategoryID:                   req.CategoryID,
		RecipientID:                  req.RecipientID,
		TagIDs:                       req.TagIDs,
		Amount:                       amount,
		Recurrence:                   parseRecurrence(req.Recurrence),
		IsActive:                     req.IsActive,
		ForecastOnly:                 req.ForecastOnly,
		AutoExecute:                  req.AutoExecute,
		CounterPlanningTransactionID: req.CounterPlanningTransactionID,
		Note:                         req.Note,
	}

	pt, err := h.planningService.UpdatePlanning(workspaceID, id, input, mutationOrigin(c))
	if err != nil {
		return h.handleServiceError(c, err, workspaceID, "update planning transaction")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("planning_id", pt.ID.String()).Str("name", pt.Name).Msg("Planning transaction updated")

	return c.JSON(http.StatusOK, toPlanningResponse(pt))
}

// DeletePlanning handles DELETE /api/v1/planning-transactions/:id
func (h *PlanningHandler) DeletePlanning(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid planning transaction ID", nil)
	}

	if err := h.planningService.DeletePlanning(workspaceID, id, mutationOrigin(c)); err != nil {
		if errors.Is(err, domain.ErrPlanningNotFound) {
			return NewNotFoundError(c, "Planning transaction not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("planning_id", id.String()).Msg("Failed to delete planning transaction")
		return NewInternalError(c, "Failed to delete planning transaction")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("planning_id", id.String()).Msg("Planning transaction deleted (soft)")

	return c.NoContent(http.StatusNoContent)
}

func mutationOrigin(c echo.Context) domain.MutationOrigin {
	if c.Request().Header.Get(MutationOriginHeader) == string(domain.OriginSync) {
		return domain.OriginSync
	}
	return domain.OriginUser
}

func parseAmount(req AmountRequest) (domain.AmountSpec, []ValidationError) {
	spec := domain.AmountSpec{Type: domain.AmountType(req.Type)}

	parse := func(field string, raw *string, dst **decimal.Decimal) *ValidationError {
		if raw == nil {
			return nil
		}
		d, err := decimal.NewFromString(*raw)
		if err != nil {
			return &ValidationError{Field: field, Message: "Must be a valid decimal number"}
		}
		*dst = &d
		return nil
	}

	var verrs []ValidationError
	for _, p := range []struct {
		field string
		raw   *string
		dst   **decimal.Decimal
	}{
		{"amount.value", req.Value, &spec.Value},
		{"amount.approximate", req.Approximate, &spec.Approximate},
		{"amount.min", req.Min, &spec.Min},
		{"amount.max", req.Max, &spec.Max},
	} {
		if verr := parse(p.field, p.raw, p.dst); verr != nil {
			verrs = append(verrs, *verr)
		}
	}
	if len(verrs) > 0 {
		return domain.AmountSpec{}, verrs
	}

	return spec, nil
}

func parseRecurrence(req RecurrenceRequest) domain.RecurrenceRule {
	weekend := domain.WeekendHandling(req.WeekendHandling)
	if req.WeekendHandling == "" {
		weekend = domain.WeekendNone
	}

	return domain.RecurrenceRule{
		Pattern:   domain.RecurrencePattern(req.Pattern),
		StartDate: req.StartDate,
		End: domain.EndCondition{
			Type:  domain.EndType(req.EndType),
			Date:  req.EndDate,
			Count: req.EndCount,
		},
		ExecutionDay:    req.ExecutionDay,
		WeekendHandling: weekend,
	}
}

func toPlanningResponse(pt *domain.PlanningTransaction) PlanningResponse {
	resp := PlanningResponse{
		ID:          pt.ID.String(),
		WorkspaceID: pt.WorkspaceID,
		Name:        pt.Name,
		AccountID:   pt.AccountID,
		CategoryID:  pt.CategoryID,
		RecipientID: pt.RecipientID,
		TagIDs:      pt.TagIDs,
		Amount: AmountResponse{
			Type:        string(pt.Amount.Type),
			Value:       decimalString(pt.Amount.Value),
			Approximate: decimalString(pt.Amount.Approximate),
			Min:         decimalString(pt.Amount.Min),
			Max:         decimalString(pt.Amount.Max),
		},
		Recurrence: RecurrenceResponse{
			Pattern:         string(pt.Recurrence.Pattern),
			StartDate:       pt.Recurrence.StartDate.Format(time.RFC3339),
			EndType:         string(pt.Recurrence.End.Type),
			EndCount:        pt.Recurrence.End.Count,
			ExecutionDay:    pt.Recurrence.ExecutionDay,
			WeekendHandling: string(pt.Recurrence.WeekendHandling),
		},
		IsActive:     pt.IsActive,
		ForecastOnly: pt.ForecastOnly,
		AutoExecute:  pt.AutoExecute,
		Note:         pt.Note,
		CreatedAt:    pt.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    pt.UpdatedAt.Format(time.RFC3339),
	}

	if pt.TagIDs == nil {
		resp.TagIDs = []string{}
	}
	if pt.Recurrence.End.Date != nil {
		d := pt.Recurrence.End.Date.Format(time.RFC3339)
		resp.Recurrence.EndDate = &d
	}
	if pt.CounterPlanningTransactionID != nil {
		id := pt.CounterPlanningTransactionID.String()
		resp.CounterPlanningTransactionID = &id
	}

	return resp
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func (h *PlanningHandler) handleServiceError(c echo.Context, err error, workspaceID int32, operation string) error {
	if errors.Is(err, domain.ErrPlanningNotFound) {
		return NewNotFoundError(c, "Planning transaction not found")
	}
	if errors.Is(err, domain.ErrNameRequired) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	}
	if errors.Is(err, domain.ErrNameTooLong) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	}
	if errors.Is(err, domain.ErrInvalidAmountSpec) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount fields must match the amount type"},
		})
	}
	if errors.Is(err, domain.ErrInvalidPattern) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "recurrence.pattern", Message: "Unknown recurrence pattern"},
		})
	}
	if errors.Is(err, domain.ErrInvalidEndCondition) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "recurrence.endType", Message: "End condition fields must match the end type"},
		})
	}
	if errors.Is(err, domain.ErrInvalidExecutionDay) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "recurrence.executionDay", Message: "Execution day out of range for the pattern"},
		})
	}
	if errors.Is(err, domain.ErrInvalidRule) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "recurrence", Message: "Invalid recurrence rule"},
		})
	}

	log.Error().Err(err).Int32("workspace_id", workspaceID).Msgf("Failed to %s", operation)
	return NewInternalError(c, "Failed to "+operation)
}
