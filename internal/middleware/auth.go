package middleware

import (
	"net/http"
	"strings"

	"fuel_dispatch/internal/models"
	"fuel_dispatch/internal/services"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxPhone  = "phone"
)

// Authenticate validates the bearer access token. Validation is
// stateless: signature and expiry only, no store lookup.
func Authenticate(tokens services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := tokens.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxPhone, claims.Phone)
		c.Next()
	}
}

// RequireRoles rejects authenticated callers whose role is not listed.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.Role(c.GetString(CtxRole))
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
	}
}
