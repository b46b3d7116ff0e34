package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrPermission      = errors.New("permission denied")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal server error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUpstreamUpload  = errors.New("upstream upload failed")
	ErrUpstreamDelete  = errors.New("upstream delete failed")
	ErrPersistence     = errors.New("persistence failed")
)

// codes are the stable identifiers sent to clients in the "error" field.
var codes = map[error]string{
	ErrNotFound:        "not_found",
	ErrPermission:      "forbidden",
	ErrInvalidInput:    "invalid_input",
	ErrPayloadTooLarge: "payload_too_large",
	ErrConflict:        "conflict",
	ErrInternal:        "internal_error",
	ErrUnauthorized:    "unauthorized",
	ErrUpstreamUpload:  "upstream_upload_failed",
	ErrUpstreamDelete:  "upstream_delete_failed",
	ErrPersistence:     "persistence_failed",
}

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

// Cause returns the underlying error, which is never shown to clients.
func (e *AppError) Cause() error {
	return e.Err
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

func NewPayloadTooLarge(limit int64) *AppError {
	msg := fmt.Sprintf("File exceeds the %d byte upload limit", limit)
	return NewAppError(ErrPayloadTooLarge, msg, "", nil)
}

func NewConflict(resource, field, value string) *AppError {
	msg := fmt.Sprintf("%s conflict", resource)
	details := fmt.Sprintf("%s with %s '%s' already exists", resource, field, value)
	return NewAppError(ErrConflict, msg, details, nil)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Authentication required", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

func NewUpstreamUpload(details string, err error) *AppError {
	return NewAppError(ErrUpstreamUpload, "Video upload failed", details, err)
}

func NewUpstreamDelete(details string, err error) *AppError {
	return NewAppError(ErrUpstreamDelete, "Failed to delete video from media provider", details, err)
}

func NewPersistence(details string, err error) *AppError {
	return NewAppError(ErrPersistence, "A database error occurred", details, err)
}

func ToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Code returns the stable client-facing code for err.
func Code(err error) string {
	for base, code := range codes {
		if errors.Is(err, base) {
			return code
		}
	}
	return codes[ErrInternal]
}

func (e *AppError) ToJSON() gin.H {
	return gin.H{
		"error":   Code(e),
		"message": e.Message,
	}
}
