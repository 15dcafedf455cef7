package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rentfold/rentfold/internal/services"
)

// timeNow is swapped in tests that pin the clock.
var timeNow = time.Now

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// statusForCode maps a lifecycle error code to an HTTP status.
func statusForCode(code services.ErrorCode) int {
	switch code {
	case services.CodeInvalidCode:
		return http.StatusNotFound
	case services.CodeExpired, services.CodeRevoked:
		return http.StatusGone
	case services.CodeAlreadyUsed, services.CodeConflict:
		return http.StatusConflict
	case services.CodeValidationError:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

// messageForCode maps a lifecycle error code to the user-visible text.
// Every business outcome gets a specific message; only a store failure
// is generic and retryable.
func messageForCode(code services.ErrorCode) string {
	switch code {
	case services.CodeInvalidCode:
		return "This invitation link is not valid."
	case services.CodeExpired:
		return "This invitation has expired. Ask your property manager to send a new one."
	case services.CodeAlreadyUsed:
		return "This invitation has already been used."
	case services.CodeRevoked:
		return "This invitation has been revoked."
	case services.CodeConflict:
		return "The invitation was claimed by another request."
	default:
		return "Something went wrong. Please try again."
	}
}
