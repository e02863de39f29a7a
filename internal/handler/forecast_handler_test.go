package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
	"github.com/mlammarsch/finwise/planning-backend/internal/service"
	"github.com/mlammarsch/finwise/planning-backend/internal/testutil"
)

func setupForecastHandler() (*ForecastHandler, *testutil.MockPlanningRepository) {
	repo := testutil.NewMockPlanningRepository()
	forecastService := service.NewForecastService(repo, 0)
	autoExecService := service.NewAutoExecService(repo)
	return NewForecastHandler(forecastService, autoExecService), repo
}

func addMonthlyPlanning(repo *testutil.MockPlanningRepository, workspaceID int32, amount string, start time.Time, autoExecute bool) *domain.PlanningTransaction {
	value := decimal.RequireFromString(amount)
	pt := &domain.PlanningTransaction{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Name:        "Planning " + amount,
		AccountID:   1,
		Amount:      domain.ExactAmount(value),
		Recurrence: domain.RecurrenceRule{
			Pattern:         domain.PatternMonthly,
			StartDate:       start,
			End:             domain.EndNever(),
			WeekendHandling: domain.WeekendNone,
		},
		IsActive:    true,
		AutoExecute: autoExecute,
	}
	repo.AddPlanning(pt)
	return pt
}

func forecastContext(e *echo.Echo, path string, query url.Values, workspaceID int32) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, path+"?"+query.Encode(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if workspaceID != 0 {
		setWorkspace(c, workspaceID)
	}
	return c, rec
}

func TestGetForecast_Success(t *testing.T) {
	e := echo.New()
	handler, repo := setupForecastHandler()
	addMonthlyPlanning(repo, 1, "-1200", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), false)

	query := url.Values{"start": {"2024-01-01"}, "end": {"2024-03-31"}}
	c, rec := forecastContext(e, "/api/v1/forecast", query, 1)

	if err := handler.GetForecast(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ForecastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Data) != 3 {
		t.Fatalf("Expected 3 occurrences, got %d", len(response.Data))
	}
	if response.Data[0].Date != "2024-01-01" {
		t.Errorf("Expected first occurrence on 2024-01-01, got %s", response.Data[0].Date)
	}
	if response.Data[0].Amount != "-1200" {
		t.Errorf("Expected amount '-1200', got %s", response.Data[0].Amount)
	}
}

func TestGetForecast_InvalidDates(t *testing.T) {
	e := echo.New()
	handler, _ := setupForecastHandler()

	for _, query := range []url.Values{
		{"start": {"not-a-date"}, "end": {"2024-03-31"}},
		{"start": {"2024-01-01"}, "end": {"31/03/2024"}},
		{"end": {"2024-03-31"}},
		{},
	} {
		c, rec := forecastContext(e, "/api/v1/forecast", query, 1)

		if err := handler.GetForecast(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Query %v: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestGetForecast_InvertedWindow(t *testing.T) {
	e := echo.New()
	handler, _ := setupForecastHandler()

	query := url.Values{"start": {"2024-03-31"}, "end": {"2024-01-01"}}
	c, rec := forecastContext(e, "/api/v1/forecast", query, 1)

	if err := handler.GetForecast(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for inverted window, got %d", rec.Code)
	}
}

func TestGetForecast_MissingWorkspace(t *testing.T) {
	e := echo.New()
	handler, _ := setupForecastHandler()

	query := url.Values{"start": {"2024-01-01"}, "end": {"2024-03-31"}}
	c, rec := forecastContext(e, "/api/v1/forecast", query, 0)

	if err := handler.GetForecast(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestGetDueOccurrences(t *testing.T) {
	e := echo.New()
	handler, repo := setupForecastHandler()
	addMonthlyPlanning(repo, 1, "-50", time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), true)
	addMonthlyPlanning(repo, 1, "-80", time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), false)

	query := url.Values{"asOf": {"2024-02-15"}}
	c, rec := forecastContext(e, "/api/v1/forecast/due", query, 1)

	if err := handler.GetDueOccurrences(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response DueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	// Only the auto-executing plan contributes: Jan 10 and Feb 10
	if len(response.Data) != 2 {
		t.Fatalf("Expected 2 due occurrences, got %d", len(response.Data))
	}
	if response.Data[0].Date != "2024-01-10" || response.Data[1].Date != "2024-02-10" {
		t.Errorf("Unexpected due dates: %s, %s", response.Data[0].Date, response.Data[1].Date)
	}
}

func TestGetDueOccurrences_InvalidAsOf(t *testing.T) {
	e := echo.New()
	handler, _ := setupForecastHandler()

	query := url.Values{"asOf": {"soon"}}
	c, rec := forecastContext(e, "/api/v1/forecast/due", query, 1)

	if err := handler.GetDueOccurrences(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}
