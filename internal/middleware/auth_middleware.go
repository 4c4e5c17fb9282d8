// internal/middleware/auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"gymflow-service/internal/pkg/jwt"
	"gymflow-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	verifier *jwt.Verifier
}

func NewAuthMiddleware(verifier *jwt.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Auth is the base authentication middleware that validates JWT tokens
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		c.Set("identity_id", claims.IdentityID)
		c.Set("gym_id", claims.GymID)
		c.Set("roles", claims.Roles)

		c.Next()
	}
}

// RequireAdmin requires a platform admin role. MUST be used after Auth().
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasRole(c, "admin") && !HasRole(c, "super_admin") {
			response.Forbidden(c, "admin access required")
			return
		}
		c.Next()
	}
}

// RequireGymAccess allows platform admins through unconditionally and gym
// users only for their own gym (the :gym_id route parameter).
func (m *AuthMiddleware) RequireGymAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		if HasRole(c, "admin") || HasRole(c, "super_admin") {
			c.Next()
			return
		}

		gymID, ok := GetGymID(c)
		if !ok || c.Param("gym_id") == "" {
			response.Forbidden(c, "gym access required")
			return
		}
		if paramInt64(c, "gym_id") != gymID {
			response.Forbidden(c, "not your gym")
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Websocket clients cannot set headers from the browser.
	return c.Query("token")
}
