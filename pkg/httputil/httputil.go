package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/attendsure/attendance-authority/pkg/errors"
)

// Response is the action-router's response envelope. Business failures
// are reported with success=false and code set, always at HTTP 200;
// the HTTP status line is reserved for transport-level failures
// (malformed body, unrouted path).
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// JSON sends a successful JSON response.
func JSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(Response{
		Success: true,
		Data:    data,
	})
}

// OK sends a successful JSON response with a message, for actions
// whose result is informational rather than a data payload.
func OK(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a business-failure response. AppErrors are unwrapped into
// their code/message; any other error is reported as INTERNAL_ERROR.
// Both cases answer HTTP 200, per the action router's envelope contract.
func Error(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if errors.As(err, &appErr) {
		json.NewEncoder(w).Encode(Response{
			Success: false,
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}

	json.NewEncoder(w).Encode(Response{
		Success: false,
		Message: "an unexpected error occurred",
		Code:    "INTERNAL_ERROR",
	})
}

// TransportError sends a transport-level failure (malformed request,
// unrouted path) with a real non-200 status code. Unlike Error, this is
// not a business-rule rejection.
func TransportError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{
		Success: false,
		Message: message,
	})
}
