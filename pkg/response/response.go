package response

import (
	"errors"
	"net/http"
	"time"

	"payment-broker/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the standard error envelope shared by HTTP and the bus.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Error sends an error response built by FromError.
func Error(c *gin.Context, err error) {
	body := FromError(err)
	body.RequestID = getRequestID(c)
	c.JSON(body.StatusCode, body)
}

// FromError maps err to an envelope. *apperror.AppError values keep their
// code and status; anything else becomes a 500.
func FromError(err error) ErrorResponse {
	now := time.Now().UTC().Format(time.RFC3339)

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return ErrorResponse{
			StatusCode: appErr.HTTPStatus,
			Code:       appErr.Code,
			Message:    appErr.Message,
			Timestamp:  now,
		}
	}

	return ErrorResponse{
		StatusCode: http.StatusInternalServerError,
		Code:       "SYS_000",
		Message:    "Internal server error",
		Timestamp:  now,
	}
}

// getRequestID retrieves request ID from context, or generates one.
func getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
