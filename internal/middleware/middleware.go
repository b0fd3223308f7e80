package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"smmpanel/internal/models"
	"smmpanel/internal/repository"
)

// AuthUserKey is the context key holding the authenticated *models.User.
const AuthUserKey = "auth_user"

// KeyAuth validates the Token header against per-user API keys and stores the
// owner in the request context.
func KeyAuth(users *repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get("Token")
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_api_key"})
			}
			user, err := users.FindByAPIKey(token)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_api_key"})
				}
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal_server_error"})
			}
			if user.Status != models.UserActive {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "invalid_api_key"})
			}
			c.Set(AuthUserKey, user)
			return next(c)
		}
	}
}

// AuthUser returns the user stored by KeyAuth.
func AuthUser(c echo.Context) *models.User {
	user, _ := c.Get(AuthUserKey).(*models.User)
	return user
}

// CronSecret guards the sweep endpoints with a shared secret, accepted as a
// `secret` query parameter or a bearer token. An empty configured secret
// disables the endpoints entirely.
func CronSecret(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return c.NoContent(http.StatusNotFound)
			}
			supplied := c.QueryParam("secret")
			if supplied == "" {
				auth := c.Request().Header.Get("Authorization")
				supplied = strings.TrimPrefix(auth, "Bearer ")
			}
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_secret"})
			}
			return next(c)
		}
	}
}

// CORS configures CORS headers.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Token, Authorization")
			if c.Request().Method == "OPTIONS" {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
