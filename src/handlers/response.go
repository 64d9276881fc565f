package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/jobs"
	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/security/validation"
	"github.com/username/compartmentdesk/backend/src/services"
)

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func sendJSON(w http.ResponseWriter, r *http.Request, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding JSON response", "path", r.URL.Path, "error", err)
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, jobs.ErrUnknownJob):
		return http.StatusNotFound
	case errors.Is(err, bondcalc.ErrInvalidFrequency):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrValidation), errors.Is(err, validation.ErrValidationFailed):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// sendServiceError answers with the status matching err. Internal errors are
// logged and reported without their details.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", "action", action, "error", err)
		sendJSONError(w, "Failed to "+action, status)
		return
	}
	sendJSONError(w, err.Error(), status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		logger.FromContext(r.Context()).Debug("Invalid request body", "path", r.URL.Path, "error", err)
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
