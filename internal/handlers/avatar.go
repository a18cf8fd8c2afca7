package handlers

import (
	"encoding/json"
	"net/http"

	"couple-sync-backend/internal/middleware"
	"couple-sync-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AvatarHandler handles avatar upload HTTP requests
type AvatarHandler struct {
	avatarService *services.AvatarService
}

// NewAvatarHandler creates a new avatar handler
func NewAvatarHandler(avatarService *services.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatarService: avatarService}
}

// UploadRequest represents a request for a pre-signed avatar upload URL
type UploadRequest struct {
	ContentType string `json:"content_type"`
}

// PrepareUpload handles POST /api/v1/users/me/avatar
func (h *AvatarHandler) PrepareUpload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	resp, err := h.avatarService.PrepareUpload(r.Context(), userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to prepare avatar upload")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
