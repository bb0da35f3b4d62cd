package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/comment-system/backend/internal/apperror"
	"github.com/emilythestrangee/comment-system/backend/internal/middleware"
	"github.com/emilythestrangee/comment-system/backend/internal/services"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Comment *CommentHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(authService *services.AuthService, commentService *services.CommentService, cookie CookieConfig) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(authService, cookie),
		Comment: NewCommentHandler(commentService),
	}
}

// CookieConfig controls the session cookie set on login and register.
type CookieConfig struct {
	Enabled bool
	Name    string
	MaxAge  time.Duration
	// Secure marks the cookie Secure with SameSite=None for cross-site
	// frontends. Otherwise SameSite=Lax is used.
	Secure bool
}

func extractUserID(c *gin.Context) (string, bool) {
	raw, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := raw.(string)
	return id, ok && id != ""
}

// bindError turns a binding failure into a validation error naming the
// first offending field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Validation("Invalid request body")
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperror.Validation(field + " is required")
	case "email":
		return apperror.Validation("Please provide a valid email")
	case "min":
		return apperror.Validation(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	case "max":
		return apperror.Validation(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	}
	return apperror.Validation(field + " is invalid")
}

func unauthenticated(c *gin.Context) {
	_ = c.Error(apperror.Unauthenticated("User not authenticated"))
}

// fail hands err to the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

func respond(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
