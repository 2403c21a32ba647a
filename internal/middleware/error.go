package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/belzunces/monsieurchef/internal/service"
	"github.com/belzunces/monsieurchef/internal/types"
)

// StatusFor maps a service error to the HTTP status returned to API clients
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyInput),
		errors.Is(err, service.ErrUnsupportedImage),
		errors.Is(err, service.ErrNameRequired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrLoginRequired),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrConversionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler turns errors attached with c.Error into a JSON error
// response. Internal errors are logged and replaced by a generic message.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := StatusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "request failed",
				"error", err,
				"method", c.Request.Method,
				"path", c.FullPath())
			msg = "Internal Server Error"
		}
		c.JSON(status, types.ErrorResponse{Error: msg})
	}
}
