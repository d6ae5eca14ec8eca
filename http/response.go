package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/picstash/picstash"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the appropriate error response based on error type.
// Internal errors pass the underlying message through to the caller.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	if errors.Is(err, picstash.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	if errors.Is(err, picstash.ErrInvalidInput) {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if errors.Is(err, picstash.ErrUnauthorized) {
		WriteError(w, http.StatusForbidden, "unauthorized", err.Error())
		return
	}

	WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
