package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"seller-users/internal/domain"
)

// Stable machine-readable error codes carried in every error response.
const (
	CodeValidationError        = "validation_error"
	CodeAuthenticationRequired = "authentication_required"
	CodeAccessForbidden        = "access_forbidden"
	CodeNotFound               = "not_found"
	CodeConflict               = "conflict"
	CodeNoFieldsProvided       = "no_fields_provided"
	CodeStorageUnavailable     = "storage_unavailable"
	CodeInternalError          = "internal_error"
)

// ResponseMetadata describes the outcome of an operation.
type ResponseMetadata struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// StandardResponse is the envelope every successful endpoint returns.
type StandardResponse struct {
	Metadata ResponseMetadata `json:"metadata"`
	Data     any              `json:"data"`
}

// ErrorDetail is one specific failure inside an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope every failed endpoint returns. Internal
// details never appear here; they are logged instead.
type ErrorResponse struct {
	Metadata ResponseMetadata `json:"metadata"`
	Errors   []ErrorDetail    `json:"errors"`
}

func newMetadata(success bool, message string) ResponseMetadata {
	return ResponseMetadata{
		Success:   success,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func respondSuccess(c *gin.Context, status int, message string, data any) {
	c.JSON(status, StandardResponse{
		Metadata: newMetadata(true, message),
		Data:     data,
	})
}

func respondError(c *gin.Context, status int, message string, details ...ErrorDetail) {
	c.JSON(status, ErrorResponse{
		Metadata: newMetadata(false, message),
		Errors:   details,
	})
}

func abortError(c *gin.Context, status int, message string, details ...ErrorDetail) {
	c.Abort()
	respondError(c, status, message, details...)
}

// respondDomainError maps repository/service sentinel errors to status codes
// and stable codes; anything unrecognized becomes an internal error with the
// given fallback message.
func respondDomainError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, "User not found", ErrorDetail{
			Code:    CodeNotFound,
			Message: "User not found",
		})
	case errors.Is(err, domain.ErrConflict):
		respondError(c, http.StatusConflict, "User with this email already exists for this seller", ErrorDetail{
			Code:    CodeConflict,
			Field:   "email",
			Message: "User with this email already exists for this seller",
		})
	case errors.Is(err, domain.ErrNoFieldsProvided):
		respondError(c, http.StatusBadRequest, "No fields provided for update", ErrorDetail{
			Code:    CodeNoFieldsProvided,
			Message: "No fields provided for update",
		})
	case errors.Is(err, domain.ErrStorageUnavailable):
		respondError(c, http.StatusServiceUnavailable, "Storage is not available", ErrorDetail{
			Code:    CodeStorageUnavailable,
			Message: "Storage is not available",
		})
	default:
		respondError(c, http.StatusInternalServerError, fallback, ErrorDetail{
			Code:    CodeInternalError,
			Message: fallback,
		})
	}
}
