package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-system/backend/internal/apperror"
)

const genericMessage = "Something went wrong"

// ErrorHandler renders the last error pushed with c.Error as
// {status, code, message}. Errors that are not exposed become a generic 500.
// With dev set the underlying cause is returned as detail.
func ErrorHandler(lg *slog.Logger, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status := apperror.StatusOf(err)
		code, message := apperror.CodeInternal, genericMessage
		cause := err
		if appErr, ok := apperror.As(err); ok {
			code = appErr.Code
			if appErr.Expose {
				message = appErr.Message
			}
			cause = appErr.Err
		}

		if status >= http.StatusInternalServerError {
			lg.Error("request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"ip", c.ClientIP(),
				"error", err,
			)
		}

		body := gin.H{"status": "error", "code": code, "message": message}
		if dev && cause != nil {
			body["detail"] = cause.Error()
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// NoRoute reports unknown routes through ErrorHandler.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperror.NotFound("Route " + c.Request.URL.Path + " not found"))
	}
}
