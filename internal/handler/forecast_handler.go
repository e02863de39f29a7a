package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
	"github.com/mlammarsch/finwise/planning-backend/internal/middleware"
	"github.com/mlammarsch/finwise/planning-backend/internal/service"
)

// ForecastHandler handles forecast projection HTTP requests
type ForecastHandler struct {
	forecastService *service.ForecastService
	autoExecService *service.AutoExecService
}

// NewForecastHandler creates a new ForecastHandler
func NewForecastHandler(forecastService *service.ForecastService, autoExecService *service.AutoExecService) *ForecastHandler {
	return &ForecastHandler{
		forecastService: forecastService,
		autoExecService: autoExecService,
	}
}

// OccurrenceResponse represents a projected occurrence in API responses
type OccurrenceResponse struct {
	PlanningTransactionID string `json:"planningTransactionId"`
	Date                  string `json:"date"`
	RawDate               string `json:"rawDate"`
	Amount                string `json:"amount"`
	SequenceIndex         int    `json:"sequenceIndex"`
	ForecastOnly          bool   `json:"forecastOnly"`
	AutoExecute           bool   `json:"autoExecute"`
}

// ForecastResponse represents the forecast projection response
type ForecastResponse struct {
	Start string               `json:"start"`
	End   string               `json:"end"`
	Data  []OccurrenceResponse `json:"data"`
}

// DueResponse represents the due occurrences response
type DueResponse struct {
	AsOf string               `json:"asOf"`
	Data []OccurrenceResponse `json:"data"`
}

// GetForecast handles GET /api/v1/forecast?start=...&end=...
func (h *ForecastHandler) GetForecast(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	start, err := parseDateParam(c.QueryParam("start"))
	if err != nil {
		return NewValidationError(c, "Invalid start date", []ValidationError{
			{Field: "start", Message: "Must be an RFC 3339 timestamp or YYYY-MM-DD date"},
		})
	}
	end, err := parseDateParam(c.QueryParam("end"))
	if err != nil {
		return NewValidationError(c, "Invalid end date", []ValidationError{
			{Field: "end", Message: "Must be an RFC 3339 timestamp or YYYY-MM-DD date"},
		})
	}

	occ, err := h.forecastService.Project(workspaceID, start, end)
	if err != nil {
		if errors.Is(err, domain.ErrProjectionBounds) {
			return NewValidationError(c, err.Error(), nil)
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to project forecast")
		return NewInternalError(c, "Failed to project forecast")
	}

	return c.JSON(http.StatusOK, ForecastResponse{
		Start: start.Format(time.RFC3339),
		End:   end.Format(time.RFC3339),
		Data:  toOccurrenceResponses(occ),
	})
}

// GetDueOccurrences handles GET /api/v1/forecast/due?asOf=...
func (h *ForecastHandler) GetDueOccurrences(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	asOf := time.Now().UTC()
	if raw := c.QueryParam("asOf"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			return NewValidationError(c, "Invalid asOf date", []ValidationError{
				{Field: "asOf", Message: "Must be an RFC 3339 timestamp or YYYY-MM-DD date"},
			})
		}
		asOf = parsed
	}

	occ, err := h.autoExecService.DueOccurrences(workspaceID, asOf)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to list due occurrences")
		return NewInternalError(c, "Failed to list due occurrences")
	}

	return c.JSON(http.StatusOK, DueResponse{
		AsOf: asOf.Format(time.RFC3339),
		Data: toOccurrenceResponses(occ),
	})
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing date parameter")
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func toOccurrenceResponses(occ []domain.Occurrence) []OccurrenceResponse {
	out := make([]OccurrenceResponse, len(occ))
	for i, o := range occ {
		out[i] = OccurrenceResponse{
			PlanningTransactionID: o.PlanningTransactionID.String(),
			Date:                  o.Date.Format("2006-01-02"),
			RawDate:               o.RawDate.Format("2006-01-02"),
			Amount:                o.Amount.String(),
			SequenceIndex:         o.SequenceIndex,
			ForecastOnly:          o.ForecastOnly,
			AutoExecute:           o.AutoExecute,
		}
	}
	return out
}
