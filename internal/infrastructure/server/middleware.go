package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mobilize/core/internal/ports"
)

const (
	operatorKey     = "operator"
	operatorRoleKey = "operator_role"
)

// operatorOnly guards mutating routes reserved to operators. It lets every
// request through when auth is disabled.
func (s *Server) operatorOnly(authService ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !s.config.Auth.Enabled {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				s.logger.LogAuthEvent("missing_token", c.RealIP(), "endpoint", c.Request().URL.Path)
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogAuthEvent("invalid_token", c.RealIP(), "endpoint", c.Request().URL.Path, "error", err.Error())
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(operatorKey, claims.Subject)
			c.Set(operatorRoleKey, claims.Role)

			return next(c)
		}
	}
}
