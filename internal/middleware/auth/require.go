package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRoles restricts a route to the listed user types. Must run after
// Authenticate.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, role := range roles {
				if user.UserType == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
		}
	}
}

// RequireVerified gates mutating marketplace actions behind the admin
// verification flag.
func RequireVerified(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if !user.IsVerified {
			return echo.NewHTTPError(http.StatusForbidden, "account verification is required")
		}
		return next(c)
	}
}
