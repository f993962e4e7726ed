// Package api provides the JSON handlers of the gesture service.
//
// Every response carries "success". Failures add a human readable "error" and
// a stable machine readable "code".
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Error codes.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeShape            = "shape"
	CodeInvalidLabel     = "invalid_label"
	CodeModelUnavailable = "model_unavailable"
	CodeInsufficientData = "insufficient_data"
	CodeRunInProgress    = "run_in_progress"
	CodeNoRun            = "no_run"
	CodeCanceled         = "canceled"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeInternal         = "internal"
)

// maxBodyBytes bounds request bodies; a 42-float vector is well under 2 KiB.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// queryLimit parses ?limit=, defaulting to def and capping at ceiling.
func queryLimit(r *http.Request, def, ceiling int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", v)
	}
	return min(n, ceiling), nil
}
