package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/uzhavansanthai/marketplace/internal/models"
)

func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}

// SetUser is used by tests to inject an authenticated user without going
// through the token round trip.
func SetUser(c echo.Context, u *models.User) {
	c.Set(userContextKey, u)
}
