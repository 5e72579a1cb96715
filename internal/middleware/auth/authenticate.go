package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/service/token"
)

const userContextKey = "auth_user"

type Middleware struct {
	DB     *gorm.DB
	Tokens *token.Service
}

// Authenticate resolves the Bearer token to an active user and stashes it in
// the request context. Every failure is terminal for the request.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "no token provided")
		}

		userID, err := m.Tokens.ParseAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		var user models.User
		if err := m.DB.First(&user, "id = ?", userID).Error; err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or inactive user")
		}
		if !user.IsActive {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or inactive user")
		}

		c.Set(userContextKey, &user)
		return next(c)
	}
}
