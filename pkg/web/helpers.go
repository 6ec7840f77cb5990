package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-validation error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is the body of a 400 caused by schema violations, keyed by field path.
type ValidationErrorResponse struct {
	ValidationErrors map[string]string `json:"validation_errors"`
}

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, ErrorResponse{Error: message})
}

func RespondValidationErrors(w http.ResponseWriter, logger *slog.Logger, fieldErrors map[string]string) {
	RespondJSON(w, logger, http.StatusBadRequest, ValidationErrorResponse{ValidationErrors: fieldErrors})
}
