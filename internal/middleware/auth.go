package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/propertypulse/backend/internal/model"
	"github.com/propertypulse/backend/internal/repository"
)

const userContextKey = "user"

type AuthMiddleware struct {
	secret []byte
	users  repository.UserRepository
}

func NewAuthMiddleware(secret string, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), users: users}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth validates the bearer token, checks the role claim against
// the closed role set and loads the acting user onto the context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")

		var cl claims
		token, err := jwt.ParseWithClaims(tokenStr, &cl, func(t *jwt.Token) (any, error) {
			return m.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}

		role, err := model.ParseRole(cl.Role)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		userID, err := strconv.ParseUint(cl.Subject, 10, 64)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}

		user, err := m.users.FindByID(c.Request().Context(), userID)
		if err != nil || user.Role != role {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// ActingUser returns the authenticated user set by RequireAuth, or nil.
func ActingUser(c echo.Context) *model.User {
	u, _ := c.Get(userContextKey).(*model.User)
	return u
}
