// Package httpkit holds the gin middleware and response helpers shared by
// every HTTP module.
package httpkit

import (
	"net/http"

	"leadchat_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the envelope every error reply uses.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// JSON writes a payload with an explicit status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error writes an ErrorResponse with the given status.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK writes a 200 response.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// HandleError writes the error reply for a service-layer error and reports
// whether one was written. Typed *apperr.Error values map to their kind's
// status and keep their details payload; anything untyped is a 400.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if domainErr, ok := err.(*apperr.Error); ok {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   domainErr.Message,
			Details: domainErr.Details,
		})
		return true
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	return true
}
