package middleware

import (
	"crypto/subtle"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	// WorkspaceIDHeader carries the tenant id resolved by the API gateway
	WorkspaceIDHeader = "X-Workspace-ID"
	// GatewaySecretHeader proves the request passed through the gateway
	GatewaySecretHeader = "X-Gateway-Secret"

	workspaceIDContextKey = "workspace_id"
)

// TenantMiddleware extracts the workspace id set by the API gateway and
// stores it in the request context. When a gateway secret is configured,
// requests without a matching secret header are rejected.
func TenantMiddleware(gatewaySecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if gatewaySecret != "" {
				provided := c.Request().Header.Get(GatewaySecretHeader)
				if subtle.ConstantTimeCompare([]byte(provided), []byte(gatewaySecret)) != 1 {
					log.Warn().
						Str("path", c.Request().URL.Path).
						Msg("Request rejected: gateway secret mismatch")
					return unauthorizedError(c, "Invalid gateway credentials")
				}
			}

			raw := c.Request().Header.Get(WorkspaceIDHeader)
			if raw == "" {
				return unauthorizedError(c, "Missing workspace header")
			}

			id, err := strconv.ParseInt(raw, 10, 32)
			if err != nil || id <= 0 {
				return unauthorizedError(c, "Invalid workspace header")
			}

			c.Set(workspaceIDContextKey, int32(id))
			return next(c)
		}
	}
}

// GetWorkspaceID returns the workspace id stored by TenantMiddleware,
// or 0 if the request was not authenticated.
func GetWorkspaceID(c echo.Context) int32 {
	if id, ok := c.Get(workspaceIDContextKey).(int32); ok {
		return id
	}
	return 0
}
