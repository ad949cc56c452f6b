// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"clinic_marketing_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is advertised on 503 responses for store outages.
const retryAfterSeconds = "5"

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// HandleError maps domain errors to HTTP responses. Typed *apperr.Error values
// anywhere in the chain pick the status from their Kind; anything else is an
// opaque 500 so driver messages never leak. Returns true if err was non-nil.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	domainErr, ok := apperr.As(err)
	if !ok {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return true
	}

	status := domainErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if domainErr.Kind == apperr.KindUnavailable {
		c.Header("Retry-After", retryAfterSeconds)
	}

	message := domainErr.Message
	if domainErr.Kind == apperr.KindInternal {
		message = "internal error"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Details:   domainErr.Details,
		Retryable: domainErr.Retryable(),
	})
	return true
}
