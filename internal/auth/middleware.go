package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	contextKeyUserID   = "user_id"
	contextKeyUsername = "username"
	contextKeyRole     = "role"
)

// UserIDFromContext returns the current user ID set by RequireAuth. 0 if not set.
func UserIDFromContext(c *gin.Context) int64 {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return 0
	}
	id, ok := v.(int64)
	if !ok {
		return 0
	}
	return id
}

// RoleFromContext returns the current role set by RequireAuth. "" if not set.
func RoleFromContext(c *gin.Context) string {
	v, ok := c.Get(contextKeyRole)
	if !ok {
		return ""
	}
	role, _ := v.(string)
	return role
}

// RequireAuth returns a middleware that verifies the bearer token and sets
// the caller's id, username and role in context. Missing, malformed, expired
// or forged tokens all get the same 401.
func RequireAuth(tokens *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		c.Set(contextKeyUserID, claims.UserID())
		c.Set(contextKeyUsername, claims.Username)
		c.Set(contextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole returns a middleware that rejects callers whose verified role
// claim differs from role. Must run after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if RoleFromContext(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access forbidden"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}
