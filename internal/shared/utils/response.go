// Package utils provides HTTP response helpers shared by all handlers.
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"streamgate/internal/shared/errors"
)

// ErrorInfo is the error object carried in failed responses.
type ErrorInfo struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
}

// ErrorEnvelope wraps ErrorInfo under an "error" key, the shape upstream
// identity providers use and our callers already parse.
type ErrorEnvelope struct {
	Error ErrorInfo `json:"error"`
}

// SuccessResponse sends a successful response with a custom status code
func SuccessResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// CreatedResponse sends a created response
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// ErrorResponse sends an error envelope with a custom status code and message
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorEnvelope{
		Error: ErrorInfo{
			Message: message,
			Type:    string(errors.ErrorTypeInternal),
			Code:    statusCode,
		},
	})
}

// ErrorResponseWithError sends an error envelope derived from the error
// type. Authorization errors additionally set the WWW-Authenticate header
// when they carry a challenge.
func ErrorResponseWithError(c *gin.Context, err error) {
	if authErr := errors.GetAuthorizationError(err); authErr != nil {
		if authErr.Challenge != "" {
			c.Header("WWW-Authenticate", authErr.Challenge)
		}
		c.JSON(authErr.Code, ErrorEnvelope{
			Error: ErrorInfo{
				Message: authErr.Message,
				Type:    string(authErr.Type),
				Code:    authErr.Code,
			},
		})
		return
	}

	if appErr := errors.GetAppError(err); appErr != nil {
		c.JSON(appErr.Code, ErrorEnvelope{
			Error: ErrorInfo{
				Message: appErr.Message,
				Type:    string(appErr.Type),
				Code:    appErr.Code,
			},
		})
		return
	}

	// Internal details stay out of the wire format.
	ErrorResponse(c, http.StatusInternalServerError, "Internal server error occurred")
}
