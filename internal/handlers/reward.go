package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"couple-sync-backend/internal/middleware"
	"couple-sync-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// RewardHandler handles reward ledger HTTP requests
type RewardHandler struct {
	rewardService *services.RewardService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

// BalanceResponse reports the caller's point balance
type BalanceResponse struct {
	Balance int `json:"balance"`
}

// Balance handles GET /api/v1/points/balance
func (h *RewardHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	balance, err := h.rewardService.Balance(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
}

// Recent handles GET /api/v1/points/transactions?limit=N
func (h *RewardHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	txs, err := h.rewardService.Recent(r.Context(), userID, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, txs)
}

// SpendRequest represents a debit request
type SpendRequest struct {
	Amount    int     `json:"amount"`
	Reason    string  `json:"reason"`
	RelatedID *string `json:"related_id,omitempty"`
}

// Spend handles POST /api/v1/points/spend
func (h *RewardHandler) Spend(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req SpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		respondError(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		respondError(w, "reason is required", http.StatusBadRequest)
		return
	}

	tx, err := h.rewardService.Spend(r.Context(), userID, req.Amount, req.Reason, req.RelatedID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Int("amount", req.Amount).
			Msg("Failed to spend points")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tx)
}
