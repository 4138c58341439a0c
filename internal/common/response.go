// Package common holds the response helpers shared by the HTTP surface.
package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload the pricing API returns: a stable code (see
// CodeFor), a human-readable message, and the run id of the failed pricing
// attempt when one was assigned.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error renders the canonical error envelope.
func Error(w http.ResponseWriter, status int, body ErrorBody) {
	JSON(w, status, map[string]any{"error": body})
}

// Fail maps an engine error onto the envelope in one step, stamping the run id.
func Fail(w http.ResponseWriter, runID string, err error) {
	code, status := CodeFor(err)
	Error(w, status, ErrorBody{Code: code, Message: err.Error(), RunID: runID})
}
