package middleware

import (
	"net/http"
	"strings"

	"roster/internal/domain/entity"
	"roster/internal/usecase"

	"github.com/labstack/echo/v4"
)

// identityContextKey is the echo context key holding the verified caller.
const identityContextKey = "identity"

// AuthMiddleware provides middleware for access-token authentication and
// role-based authorization.
type AuthMiddleware struct {
	uc usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(uc usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{uc: uc}
}

// Authenticate validates the bearer access token and resolves it to a live
// account. All failure modes produce the same 401 response.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authorization header is missing"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format, must be Bearer token"})
		}

		identity, err := m.uc.Authorize(c.Request().Context(), tokenString)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}

		// Make the verified caller available to handlers.
		c.Set(identityContextKey, *identity)

		return next(c)
	}
}

// RequireAdmin checks that the verified caller holds the admin role.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := GetIdentity(c)
		if !ok {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: identity missing"})
		}

		if identity.Role != entity.RoleAdmin {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: require 'admin' role"})
		}

		return next(c)
	}
}

// GetIdentity extracts the verified caller set by Authenticate.
func GetIdentity(c echo.Context) (entity.Identity, bool) {
	identity, ok := c.Get(identityContextKey).(entity.Identity)

	return identity, ok
}
