package auth

import (
	"net/http"
	"strings"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
)

// Authenticate resolves the principal from a Bearer token and stores it
// in the gin context. Requests without a valid token get 401.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header must be in the format: Bearer {token}"})
			return
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin gates a route group to principals with the ADMIN role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentRole(c) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id, or 0 when anonymous.
func CurrentUserID(c *gin.Context) uint {
	if v, exists := c.Get(ContextUserID); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// CurrentRole returns the authenticated user's role, or "" when anonymous.
func CurrentRole(c *gin.Context) models.UserRole {
	if v, exists := c.Get(ContextRole); exists {
		if role, ok := v.(models.UserRole); ok {
			return role
		}
	}
	return ""
}
