package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loungefm/loungefm/internal/app"
	"github.com/loungefm/loungefm/internal/domain"
)

const userKey = "user"

// AuthMiddleware validates the bearer token and stores the resolved
// identity on the request context.
func AuthMiddleware(auth *app.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		user, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet(userKey).(*domain.User)
}
