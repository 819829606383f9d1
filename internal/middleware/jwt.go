package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docbrief/internal/pkg/jwt"
	"docbrief/internal/pkg/response"
)

const ContextUserIDKey = "user_id"

// JWTAuth rejects missing, malformed, expired and forged tokens with the
// same message so callers cannot distinguish the cases.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Message(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Message(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(parts[1], secret)
		if err != nil {
			response.Message(c, http.StatusUnauthorized, "Token invalid or expired")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}
