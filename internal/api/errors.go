// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// FromDomainError maps domain sentinel errors to structured API errors.
// Unknown errors become a 500 INTERNAL_ERROR.
func FromDomainError(err error) *APIError {
	switch {
	case errors.Is(err, models.ErrUnsupportedFormat):
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "UNSUPPORTED_FORMAT",
			Message: err.Error(),
		}
	case errors.Is(err, models.ErrFileTooLarge):
		return &APIError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    "FILE_TOO_LARGE",
			Message: err.Error(),
		}
	case errors.Is(err, models.ErrSessionQuotaExceeded):
		return &APIError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    "SESSION_QUOTA_EXCEEDED",
			Message: err.Error(),
		}
	case errors.Is(err, models.ErrNotFound):
		return &APIError{
			Status:  http.StatusNotFound,
			Code:    "NOT_FOUND",
			Message: err.Error(),
		}
	case errors.Is(err, models.ErrInvalidStateTransition):
		return &APIError{
			Status:  http.StatusConflict,
			Code:    "INVALID_STATE",
			Message: err.Error(),
		}
	case errors.Is(err, models.ErrNothingToArchive):
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "NOTHING_TO_ARCHIVE",
			Message: err.Error(),
		}
	default:
		return NewInternalError("An unexpected error occurred", err)
	}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = FromDomainError(err)
	}

	if !c.Response().Committed {
		c.JSON(apiErr.Status, apiErr)
	}
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
