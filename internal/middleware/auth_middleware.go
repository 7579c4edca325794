package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mohanraja088/simple-chat-app-demo/internal/services"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
)

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	UserIDFromToken(token string) (string, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := tokens.UserIDFromToken(extractBearer(c))
		if err != nil || userID == "" {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := services.WithUserContext(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalAuthMiddleware records the user of a valid bearer token and lets
// every other request through anonymously.
func OptionalAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractBearer(c); token != "" {
			if userID, err := tokens.UserIDFromToken(token); err == nil && userID != "" {
				c.Request = c.Request.WithContext(services.WithUserContext(c.Request.Context(), userID))
			}
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
