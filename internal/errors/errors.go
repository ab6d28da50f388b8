package errors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies application errors. The string values are the
// machine-readable kinds surfaced to callers.
type ErrorType string

const (
	// ErrorTypeInvalidImage marks user-correctable validation failures.
	ErrorTypeInvalidImage ErrorType = "invalid_image"
	// ErrorTypeAdapterTimeout marks a remote inference call that exceeded its deadline.
	ErrorTypeAdapterTimeout ErrorType = "adapter_timeout"
	// ErrorTypeAdapterConnection marks a remote inference call that could not connect.
	ErrorTypeAdapterConnection ErrorType = "adapter_connection"
	// ErrorTypeAdapterBadStatus marks a remote inference call answered with a non-200 status.
	ErrorTypeAdapterBadStatus ErrorType = "adapter_bad_status"
	// ErrorTypeNoRegions marks an analysis where every region's inference failed.
	ErrorTypeNoRegions ErrorType = "no_regions_analyzed"
	// ErrorTypeModelLoad marks a startup-time model load failure.
	ErrorTypeModelLoad ErrorType = "model_load_failure"
	// ErrorTypeDevice marks LED device communication failures.
	ErrorTypeDevice ErrorType = "device_error"
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeInternal ErrorType = "internal"
)

// AppError is a structured application error. Message is safe to show to
// callers; Cause never crosses the API boundary.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewInvalidImageError creates a validation error with a user-facing reason.
func NewInvalidImageError(reason string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidImage,
		Message:    reason,
		StatusCode: http.StatusBadRequest,
	}
}

// NewAdapterTimeoutError creates a remote-inference timeout error.
func NewAdapterTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAdapterTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewAdapterConnectionError creates a remote-inference connection error.
func NewAdapterConnectionError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAdapterConnection,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewAdapterBadStatusError creates an error for a non-200 remote response.
func NewAdapterBadStatusError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAdapterBadStatus,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewModelLoadError creates a startup-time model load error.
func NewModelLoadError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeModelLoad,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewDeviceError creates a device communication error.
func NewDeviceError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDevice,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks whether err is an AppError of the given type.
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error.
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetKind extracts the machine-readable error kind from an error.
func GetKind(err error) ErrorType {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}
