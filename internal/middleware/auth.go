package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-system/backend/internal/apperror"
	"github.com/emilythestrangee/comment-system/backend/internal/auth"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "user_id"
	EmailKey  = "email"
)

// AuthMiddleware verifies the session token, read from the cookie first and
// then from an Authorization: Bearer header.
func AuthMiddleware(tokens *auth.TokenService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c, cookieName)
		if token == "" {
			_ = c.Error(apperror.Unauthenticated("No token provided. Please authenticate."))
			c.Abort()
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			_ = c.Error(apperror.Unauthenticated("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
