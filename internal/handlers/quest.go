package handlers

import (
	"net/http"

	"couple-sync-backend/internal/middleware"
	"couple-sync-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// QuestHandler handles daily quest HTTP requests
type QuestHandler struct {
	questService   *services.QuestService
	pairingService *services.PairingService
}

// NewQuestHandler creates a new quest handler
func NewQuestHandler(questService *services.QuestService, pairingService *services.PairingService) *QuestHandler {
	return &QuestHandler{questService: questService, pairingService: pairingService}
}

// Get handles GET /api/v1/quests/{quest_id}
func (h *QuestHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questID := chi.URLParam(r, "quest_id")

	quest, err := h.questService.Get(r.Context(), questID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// Only members may read the couple's quest.
	couple, err := h.pairingService.Status(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if couple == nil || couple.ID != quest.CoupleID {
		respondError(w, "user is not a member of this couple", http.StatusForbidden)
		return
	}

	respondJSON(w, http.StatusOK, quest)
}

// Complete handles POST /api/v1/quests/{quest_id}/complete. Safe to
// retry: a repeated call for the same user changes nothing.
func (h *QuestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questID := chi.URLParam(r, "quest_id")

	quest, err := h.questService.CompleteForUser(r.Context(), questID, userID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("quest_id", questID).
			Msg("Failed to complete quest")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, quest)
}

// StreakResponse reports the couple's current streak
type StreakResponse struct {
	Streak int `json:"streak"`
}

// Streak handles GET /api/v1/couples/{couple_id}/streak
func (h *QuestHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	coupleID := chi.URLParam(r, "couple_id")

	// Only members may read the couple's streak.
	couple, err := h.pairingService.Status(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if couple == nil || couple.ID != coupleID {
		respondError(w, "user is not a member of this couple", http.StatusForbidden)
		return
	}

	streak, err := h.questService.CurrentStreak(r.Context(), coupleID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, StreakResponse{Streak: streak})
}
