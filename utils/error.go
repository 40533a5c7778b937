package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AppError is an operational error with a known HTTP status. Every error
// that reaches the boundary handler as an AppError is rendered with its
// own message; anything else is rendered as an opaque 500.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap attaches an underlying cause for logging without exposing it.
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Err: err}
}

func NewAppError(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, message)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message)
}

func Internal(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message)
}

// statusWord maps an HTTP status to the envelope's status field:
// "fail" for client errors, "error" for server errors.
func statusWord(code int) string {
	if code >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}

// Fail records err on the context and aborts. The boundary handler set up
// by ErrorHandler renders it; no handler formats its own error body.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler is the single error boundary: it recovers panics and maps
// the last recorded error to the response envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status":  "error",
					"message": "Something went very wrong!",
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				GetLogger().Error(appErr.Message, zap.Error(err))
			} else {
				GetLogger().Warn(appErr.Message, zap.Error(appErr.Err))
			}
			c.AbortWithStatusJSON(appErr.Code, gin.H{
				"status":  statusWord(appErr.Code),
				"message": appErr.Message,
			})
			return
		}

		// Unknown error kinds never leak internal detail to the caller.
		GetLogger().Error("Unhandled error", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Something went very wrong!",
		})
	}
}
