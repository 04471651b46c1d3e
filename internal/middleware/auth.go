package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rohan-b84/stackroom/internal/auth"
)

// Context keys for claims stored in gin.Context. Constants so a typo in a
// handler is a compile error, not a silent nil.
const (
	ContextKeyUserID      = "user_id"
	ContextKeyOrgID       = "org_id"
	ContextKeyEmail       = "email"
	ContextKeyDisplayName = "display_name"
	ContextKeyRole        = "role"
)

// AuthMiddleware validates the Bearer token and stashes its claims in the
// request context. Invalid or missing tokens abort with 401 before any
// handler runs.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := auth.ParseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyOrgID, claims.OrgID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyDisplayName, claims.DisplayName)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// Typed accessors so handlers don't repeat the two-step assertion dance.
// A missing key yields the zero value, which fails any org-scoped query
// gracefully instead of panicking.

func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func GetOrgID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyOrgID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func GetDisplayName(c *gin.Context) string {
	val, exists := c.Get(ContextKeyDisplayName)
	if !exists {
		return ""
	}
	name, ok := val.(string)
	if !ok {
		return ""
	}
	return name
}

func GetRole(c *gin.Context) string {
	val, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	role, ok := val.(string)
	if !ok {
		return ""
	}
	return role
}
