package handlers

import (
	"net/http"

	"couple-sync-backend/internal/middleware"
	"couple-sync-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades connections into the hint hub. The socket
// only carries hints; clients confirm anything they hear by fetching
// the authoritative state.
type WebSocketHandler struct {
	hub            *services.Hub
	userService    *services.UserService
	pairingService *services.PairingService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.Hub,
	userService *services.UserService,
	pairingService *services.PairingService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		userService:    userService,
		pairingService: pairingService,
	}
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := middleware.ValidateWebSocketToken(token, h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	// Tell the partner we came online, and this client whether it is
	// currently paired.
	couple, err := h.pairingService.Status(r.Context(), userID)
	if err == nil && couple != nil {
		partnerID := couple.PartnerOf(userID)
		h.hub.NotifyPartnerStatus(partnerID, true)
		defer h.hub.NotifyPartnerStatus(partnerID, false)

		online := h.hub.IsOnline(partnerID)
		h.sendStatus(userID, services.HintMessage{
			Type:     services.HintPartnerStatus,
			CoupleID: couple.ID,
			Online:   &online,
		})
	}

	// Read loop: the client sends nothing we act on, but reading is what
	// notices the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WebSocketHandler) sendStatus(userID string, msg services.HintMessage) {
	if err := h.hub.Send(userID, msg); err != nil {
		log.Debug().Err(err).Str("user_id", userID).Msg("Failed to send pairing status over socket")
	}
}
