package handler

// RESPONSE HELPERS:
// Every JSON endpoint goes through writeJSON, and every failure through
// writeError, so status codes and error bodies are decided in one place.
//
// CONSISTENT ERROR FORMAT:
//   {"error": "not_found", "message": "user not found with id abc123"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/click-counter/internal/apperror"
)

// errNoUser is what a handler reports when it runs without the user the
// gate should have put in the context. It means a route was registered
// outside auth.RequireAuthenticated.
var errNoUser = errors.New("handler: no authenticated user in request context")

// ErrorResponse is the standard error body returned by the JSON endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body is written. Once Encode
// writes, any further header change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// ERROR MAPPING:
//
//	apperror.ErrNotFound → 404 with the AppError message
//	apperror.ErrStore    → 500, generic message
//	anything else        → 500, generic message
//
// Store failures carry SQL fragments and driver messages in their cause,
// so their text never reaches the client. The caller logs the full error.
//
// Unauthenticated is not handled here: the gate turns it into a redirect
// before any handler runs.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Err == apperror.ErrNotFound {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
