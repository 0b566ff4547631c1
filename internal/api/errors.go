package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/irkeyd/irkeyd/internal/remotes"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeOutOfRange = "out_of_range"
	ErrCodeInternal   = "internal_error"
	ErrCodeEndpoint   = "endpoint_registration_failed"
	ErrCodeValidation = "validation_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeRegistryError maps registry domain errors to HTTP responses.
//
// Mapping:
//   - ErrNotFound, ErrUnknownAttr → 404
//   - ErrDuplicateName        → 409
//   - ErrInvalidFormat        → 400
//   - ErrOutOfRange           → 422
//   - ErrEndpointRegistration → 502
//   - anything else           → 500
func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, remotes.ErrNotFound), errors.Is(err, remotes.ErrUnknownAttr):
		writeNotFound(w, err.Error())
	case errors.Is(err, remotes.ErrDuplicateName):
		writeConflict(w, err.Error())
	case errors.Is(err, remotes.ErrInvalidFormat):
		writeBadRequest(w, err.Error())
	case errors.Is(err, remotes.ErrOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeOutOfRange, err.Error())
	case errors.Is(err, remotes.ErrEndpointRegistration):
		writeError(w, http.StatusBadGateway, ErrCodeEndpoint, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
