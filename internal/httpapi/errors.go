package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"modelhostd/internal/manager"
	"modelhostd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps a service error to a status code. Errors that carry no
// status are server faults.
func statusFor(err error) int {
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeServiceError maps err to a status and writes the JSON error payload.
// Validation rejections are counted by kind.
func writeServiceError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	kind := string(manager.KindOf(err))
	if kind != "" {
		IncrementValidationRejection(kind)
	}
	writeJSONErrorKind(w, status, err.Error(), kind)
	return status
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSONErrorKind(w, status, msg, "")
}

func writeJSONErrorKind(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
