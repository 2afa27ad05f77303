package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("resource conflict")
	ErrInternal     = errors.New("internal server error")
	ErrValidation   = errors.New("validation error")
)

// AppError represents an application error carrying the taxonomy code
// this service's response envelope requires.
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Taxonomy constructors, one per business-failure code the action
// router can emit. All use http.StatusOK: the router always answers
// business failures with HTTP 200 and success=false, reserving non-200
// codes for transport failures (malformed JSON, unrouted paths) that
// never reach these constructors.

func AuthRequired(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Code: "AUTH_REQUIRED", Message: message, StatusCode: http.StatusOK}
}

func AdminRequired() *AppError {
	return &AppError{Err: ErrForbidden, Code: "ADMIN_REQUIRED", Message: "admin privileges required", StatusCode: http.StatusOK}
}

func DeviceNotRegistered() *AppError {
	return &AppError{Code: "DEVICE_NOT_REGISTERED", Message: "no device is registered for this employee", StatusCode: http.StatusOK}
}

func InvalidSignature() *AppError {
	return &AppError{Code: "INVALID_SIGNATURE", Message: "signature verification failed", StatusCode: http.StatusOK}
}

func DuplicateCheckIn() *AppError {
	return &AppError{Err: ErrConflict, Code: "DUPLICATE_CHECK_IN", Message: "already checked in today", StatusCode: http.StatusOK}
}

func DuplicateCheckOut() *AppError {
	return &AppError{Err: ErrConflict, Code: "DUPLICATE_CHECK_OUT", Message: "already checked out today", StatusCode: http.StatusOK}
}

func LateCheckIn() *AppError {
	return &AppError{Code: "LATE_CHECK_IN", Message: "check-in window has closed for today", StatusCode: http.StatusOK}
}

func CheckoutWindowBlocked() *AppError {
	return &AppError{Code: "CHECKOUT_WINDOW_BLOCKED", Message: "check-out is blocked during the shift-end window", StatusCode: http.StatusOK}
}

func AttendanceLocked() *AppError {
	return &AppError{Code: "ATTENDANCE_LOCKED", Message: "attendance record is locked by a generated payroll", StatusCode: http.StatusOK}
}

func MissingReason() *AppError {
	return &AppError{Err: ErrValidation, Code: "MISSING_REASON", Message: "a reason of at least 10 characters is required", StatusCode: http.StatusOK}
}

func DuplicateHoliday() *AppError {
	return &AppError{Err: ErrConflict, Code: "DUPLICATE_HOLIDAY", Message: "a holiday already exists on this date", StatusCode: http.StatusOK}
}

func LocationInvalid(message string) *AppError {
	return &AppError{Err: ErrValidation, Code: "LOCATION_INVALID", Message: message, StatusCode: http.StatusOK}
}

func ValidationError(message string) *AppError {
	return &AppError{Err: ErrValidation, Code: "VALIDATION_ERROR", Message: message, StatusCode: http.StatusOK}
}

func AlreadyExists(message string) *AppError {
	return &AppError{Err: ErrConflict, Code: "ALREADY_EXISTS", Message: message, StatusCode: http.StatusOK}
}

func InvalidAction(name string) *AppError {
	return &AppError{Code: "INVALID_ACTION", Message: "Unknown action: " + name, StatusCode: http.StatusOK}
}

func MissingCheckIn() *AppError {
	return &AppError{Code: "MISSING_CHECK_IN", Message: "no check-in recorded for today", StatusCode: http.StatusOK}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
