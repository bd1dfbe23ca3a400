package middleware

import (
	"net/http"
	"strings"

	"driveon/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware validates the bearer token and stores its subject and
// role claims on the context for the handlers.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Insufficient authorization",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Insufficient authorization",
			})
			return
		}

		subject, role, err := utils.ExtractClaimsFromToken(tokenString)
		if err != nil || subject == "" || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Insufficient authorization",
			})
			return
		}

		c.Set("userID", subject)
		c.Set("role", role)
		c.Next()
	}
}

// RequireRole gates a route on the role claim set by JWTAuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, exists := c.Get("role")
		if !exists || claim != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}
