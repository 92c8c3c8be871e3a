// Package handler turns HTTP requests into service calls and service results
// into JSON. Handlers never touch storage directly.
//
// Every error response has the same shape, so the frontend can parse it
// without looking at the status code first:
//
//	{"error": "validation_error", "code": "invalid_cooking_time",
//	 "message": "...", "violations": [{"code": ..., "field": ..., "message": ...}]}
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/repository"
)

// maxBodyBytes caps request bodies. Recipe images arrive inline as data URLs.
const maxBodyBytes = 10 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error      string               `json:"error"` // error type, e.g. "not_found"
	Code       apperror.Code        `json:"code"`  // specific reason, e.g. "duplicate_relation"
	Message    string               `json:"message"`
	Field      string               `json:"field,omitempty"`
	Violations []apperror.Violation `json:"violations,omitempty"`
}

// writeJSON sets headers and status before the body; header changes after
// the first Write are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, so logging is all that is left
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it. Anything
// that is not an *apperror.AppError becomes a generic 500 so SQL and file
// paths never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Code:    "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	}

	writeJSON(w, status, ErrorResponse{
		Error:      errorType,
		Code:       appErr.Code,
		Message:    appErr.Message,
		Field:      appErr.Field,
		Violations: appErr.Violations,
	})
}

// decodeJSON reads a JSON body into dst. A malformed body is a validation
// error, not a 500.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.ValidationFailed("", fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit))
		}
		return apperror.ValidationFailed("", "invalid JSON body: "+err.Error())
	}
	return nil
}

// queryInt reads a non-negative integer query parameter, returning def when
// it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, name+" must be a non-negative integer")
	}
	return n, nil
}

// listOptions reads ?limit= and ?offset=. The storage layer applies the
// default and maximum page size.
func listOptions(r *http.Request) (repository.ListOptions, error) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return repository.ListOptions{}, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return repository.ListOptions{}, err
	}
	return repository.ListOptions{Limit: limit, Offset: offset}, nil
}

// queryFlag treats "1" and "true" as set.
func queryFlag(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || v == "true"
}
