package handlers

import (
	"encoding/json"
	"net/http"

	"couple-sync-backend/internal/middleware"
	"couple-sync-backend/internal/models"
	"couple-sync-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// SessionHandler handles session-related HTTP requests
type SessionHandler struct {
	sessionService *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// GetOrCreateRequest represents the request body for session creation
type GetOrCreateRequest struct {
	CoupleID     string `json:"couple_id"`
	ActivityType string `json:"activity_type"`
	DayKey       string `json:"day_key,omitempty"`
}

// GetOrCreate handles POST /api/v1/sessions. Both partners call this
// independently and land on the same session.
func (h *SessionHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req GetOrCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CoupleID == "" {
		respondError(w, "couple_id is required", http.StatusBadRequest)
		return
	}

	session, err := h.sessionService.GetOrCreate(
		r.Context(), req.CoupleID, models.ActivityType(req.ActivityType), req.DayKey, userID,
	)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("couple_id", req.CoupleID).
			Str("activity_type", req.ActivityType).
			Msg("Failed to get or create session")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// Get handles GET /api/v1/sessions/{session_id}. This is the endpoint
// the client poller hits.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	session, err := h.sessionService.Get(r.Context(), sessionID, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// SubmitAnswersRequest represents one user's answer submission
type SubmitAnswersRequest struct {
	Answers []string `json:"answers"`
}

// SubmitAnswers handles POST /api/v1/sessions/{session_id}/answers
func (h *SessionHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	var req SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Answers) == 0 {
		respondError(w, "answers are required", http.StatusBadRequest)
		return
	}

	result, err := h.sessionService.SubmitAnswers(r.Context(), sessionID, userID, req.Answers)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("session_id", sessionID).
			Msg("Failed to submit answers")
		respondDomainError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Bool("completed", result.Completed).
		Msg("Answers submitted")
	respondJSON(w, http.StatusOK, result)
}
