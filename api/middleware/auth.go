package middleware

import (
	"errors"
	"net/http"
	"strings"

	"noteboard/services"

	"github.com/gin-gonic/gin"
)

// BearerToken достает credential из заголовка Authorization
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// AuthorMiddleware - аутентификация авторов записок через внешний провайдер.
// Разрешенный email кладется в контекст, дальше оркестратор работает только с ним.
func AuthorMiddleware(gate *services.IdentityGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			services.RecordSubmission("unauthenticated")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized. Please sign in with your campus email."})
			c.Abort()
			return
		}

		email, err := gate.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrForbidden) {
				services.RecordSubmission("forbidden")
				c.JSON(http.StatusForbidden, gin.H{"error": "Only campus students can post messages"})
				c.Abort()
				return
			}
			services.RecordSubmission("unauthenticated")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			c.Abort()
			return
		}

		c.Set("user_email", email)
		c.Next()
	}
}

// ModeratorMiddleware - аутентификация модераторов по сессионному токену из БД
func ModeratorMiddleware(moderators *services.ModeratorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Moderator session required"})
			c.Abort()
			return
		}

		moderator, err := moderators.CheckToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid moderator session"})
			c.Abort()
			return
		}

		c.Set("moderator_id", moderator.ID)
		c.Next()
	}
}
