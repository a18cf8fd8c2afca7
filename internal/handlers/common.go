package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"couple-sync-backend/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// respondDomainError maps a domain error to its HTTP status.
func respondDomainError(w http.ResponseWriter, err error) {
	respondError(w, err.Error(), statusForError(err))
}

// statusForError maps domain errors to HTTP status codes. Unrecognized
// errors are treated as internal.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyPaired),
		errors.Is(err, models.ErrSelfPair),
		errors.Is(err, models.ErrAlreadySubmitted),
		errors.Is(err, models.ErrSessionClosed),
		errors.Is(err, models.ErrCodeAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, models.ErrCodeExpired):
		return http.StatusGone
	case errors.Is(err, models.ErrNotCoupleMember):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidActivity):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientPoints):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
