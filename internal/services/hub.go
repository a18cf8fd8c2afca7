package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// HintMessage is a WebSocket hint pushed to connected clients. Hints are
// advisory: a client reacts by running its check-now fetch against the
// authoritative store, never by trusting the hint payload alone.
type HintMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	QuestID   string      `json:"quest_id,omitempty"`
	CoupleID  string      `json:"couple_id,omitempty"`
	Online    *bool       `json:"online,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Hint message types.
const (
	HintPartnerStatus    = "partner_status"
	HintPairCreated      = "pair_created"
	HintPairDeleted      = "pair_deleted"
	HintSessionCompleted = "session_completed"
	HintQuestCompleted   = "quest_completed"
)

// Hub manages WebSocket connections, one per user.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a user's WebSocket connection, replacing any
// previous one.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.Close()
	}
	h.connections[userID] = conn

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's WebSocket connection if it is the one
// currently registered.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.connections[userID]; ok && current == conn {
		current.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline checks if a user has a live connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// Send delivers a hint to a user if connected.
func (h *Hub) Send(userID string, msg HintMessage) error {
	h.mu.RLock()
	conn, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal hint: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send hint: %w", err)
	}
	return nil
}

// NotifyPartnerStatus tells a user their partner went online or offline.
func (h *Hub) NotifyPartnerStatus(partnerID string, online bool) {
	if partnerID == "" {
		return
	}
	msg := HintMessage{Type: HintPartnerStatus, Online: &online}
	if err := h.Send(partnerID, msg); err != nil {
		log.Debug().
			Err(err).
			Str("user_id", partnerID).
			Msg("Partner status hint not delivered")
	}
}
