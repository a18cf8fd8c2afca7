package handlers

import (
	"encoding/json"
	"net/http"

	"couple-sync-backend/internal/middleware"
	"couple-sync-backend/internal/qr"
	"couple-sync-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PairingHandler handles pairing-related HTTP requests
type PairingHandler struct {
	pairingService *services.PairingService
	qrSize         int
}

// NewPairingHandler creates a new pairing handler
func NewPairingHandler(pairingService *services.PairingService, qrSize int) *PairingHandler {
	return &PairingHandler{pairingService: pairingService, qrSize: qrSize}
}

// GenerateCode handles POST /api/v1/pairing/codes
func (h *PairingHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	code, err := h.pairingService.GenerateCode(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate pairing code")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, code)
}

// CodeQR handles GET /api/v1/pairing/codes/{code}/qr, returning the QR
// PNG the partner device scans for the handoff flow.
func (h *PairingHandler) CodeQR(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	code := chi.URLParam(r, "code")

	png, err := qr.Encode(code, userID, h.qrSize)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to encode pairing QR")
		respondError(w, "failed to encode QR", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// RedeemCodeRequest represents the request body for code redemption
type RedeemCodeRequest struct {
	Code string `json:"code"`
}

// RedeemCode handles POST /api/v1/pairing/redeem
func (h *PairingHandler) RedeemCode(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req RedeemCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Code) != 6 {
		respondError(w, "code must be 6 characters", http.StatusBadRequest)
		return
	}

	couple, err := h.pairingService.RedeemCode(r.Context(), req.Code, userID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("code", req.Code).
			Msg("Failed to redeem pairing code")
		respondDomainError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("couple_id", couple.ID).
		Msg("Pairing code redeemed")
	respondJSON(w, http.StatusOK, couple)
}

// PairDirectRequest represents the request body for the QR-handshake flow
type PairDirectRequest struct {
	PartnerID string `json:"partner_id"`
}

// PairDirect handles POST /api/v1/pairing/direct
func (h *PairingHandler) PairDirect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req PairDirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PartnerID == "" {
		respondError(w, "partner_id is required", http.StatusBadRequest)
		return
	}

	couple, err := h.pairingService.PairDirect(r.Context(), userID, req.PartnerID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("partner_id", req.PartnerID).
			Msg("Failed to pair directly")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, couple)
}

// StatusResponse reports the caller's pairing state
type StatusResponse struct {
	Paired bool        `json:"paired"`
	Couple interface{} `json:"couple,omitempty"`
}

// Status handles GET /api/v1/pairing/status. The waiting party polls
// this to observe a redemption that named them.
func (h *PairingHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	couple, err := h.pairingService.Status(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := StatusResponse{Paired: couple != nil}
	if couple != nil {
		resp.Couple = couple
	}
	respondJSON(w, http.StatusOK, resp)
}

// Unpair handles DELETE /api/v1/couples/{couple_id}
func (h *PairingHandler) Unpair(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	coupleID := chi.URLParam(r, "couple_id")

	if coupleID == "" {
		respondError(w, "couple_id is required", http.StatusBadRequest)
		return
	}

	if err := h.pairingService.Unpair(r.Context(), coupleID, userID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("couple_id", coupleID).
			Msg("Failed to unpair")
		respondDomainError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("couple_id", coupleID).
		Msg("Couple unpaired")
	w.WriteHeader(http.StatusNoContent)
}
