package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/mlammarsch/finwise/planning-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, tenant echo.MiddlewareFunc, rateLimiter *middleware.RateLimiter, planningHandler *PlanningHandler, forecastHandler *ForecastHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(tenant)
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Planning transaction routes
	planning := api.Group("/planning-transactions")
	planning.POST("", planningHandler.CreatePlanning)
	planning.GET("", planningHandler.GetPlanningTransactions)
	planning.GET("/:id", planningHandler.GetPlanningTransaction)
	planning.GET("/:id/rrule", planningHandler.GetPlanningRRule)
	planning.PUT("/:id", planningHandler.UpdatePlanning)
	planning.DELETE("/:id", planningHandler.DeletePlanning)

	// Forecast routes
	forecast := api.Group("/forecast")
	forecast.GET("", forecastHandler.GetForecast)
	forecast.GET("/due", forecastHandler.GetDueOccurrences)

	// WebSocket endpoint authenticates via its own connection token
	e.GET("/ws", wsHandler.HandleWS)
}
