package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/sangkips/seedledger-api/pkg/pagination"
)

// requestIDKey is where the request logger stores the request id
const requestIDKey = "request_id"

// APIResponse is the envelope every endpoint answers with.
// Kind mirrors apperror.Kind so clients can branch without parsing messages.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

func newMeta(c *gin.Context) *Meta {
	requestID := c.GetString(requestIDKey)
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

func success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// OK sends a 200 with data
func OK(c *gin.Context, message string, data any) {
	success(c, http.StatusOK, message, data)
}

// Created sends a 201 with the created resource
func Created(c *gin.Context, message string, data any) {
	success(c, http.StatusCreated, message, data)
}

// SuccessWithPagination sends a page of results with its pagination metadata
func SuccessWithPagination[T any](c *gin.Context, message string, result *pagination.PaginatedResult[T]) {
	success(c, http.StatusOK, message, result)
}

// Error maps err onto its status code and kind. Errors that are not
// AppErrors are reported as internal without leaking their text.
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)
	if appErr.Kind == apperror.KindInternal {
		_ = c.Error(err)
	}
	c.JSON(appErr.Code, APIResponse{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Errors,
		Kind:    appErr.Kind.String(),
		Meta:    newMeta(c),
	})
}

// ValidationError sends a 422 listing the offending fields
func ValidationError(c *gin.Context, fieldErrors []apperror.FieldError) {
	Error(c, apperror.NewValidationError(fieldErrors))
}

func BadRequest(c *gin.Context, message string) {
	Error(c, apperror.NewInvalidArgumentError("%s", message))
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, apperror.NewAppError(http.StatusUnauthorized, apperror.KindUnauthorized, message))
}

func Forbidden(c *gin.Context, message string) {
	Error(c, apperror.NewAppError(http.StatusForbidden, apperror.KindForbidden, message))
}

func TooManyRequests(c *gin.Context, message string) {
	Error(c, apperror.NewAppError(http.StatusTooManyRequests, apperror.KindRateLimited, message))
}
