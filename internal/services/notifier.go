package services

import (
	"context"
	"time"

	"couple-sync-backend/internal/models"
	"couple-sync-backend/internal/push"

	"github.com/rs/zerolog/log"
)

// HintNotifier fans hints out over the WebSocket hub and APNs push.
// Both channels are best-effort: a delivery failure is logged and
// dropped, never returned, because the polling loop is the correctness
// path.
type HintNotifier struct {
	hub   *Hub
	push  *push.Service
	users UserStore
}

// NewHintNotifier creates a notifier over the given channels. hub and
// pusher may each be nil to disable that channel.
func NewHintNotifier(hub *Hub, pusher *push.Service, users UserStore) *HintNotifier {
	return &HintNotifier{hub: hub, push: pusher, users: users}
}

// PairCreated hints both members that the couple now exists.
func (n *HintNotifier) PairCreated(couple *models.Couple) {
	msg := HintMessage{
		Type:     HintPairCreated,
		CoupleID: couple.ID,
		Data: map[string]interface{}{
			"user_a_id":  couple.UserAID,
			"user_b_id":  couple.UserBID,
			"created_at": couple.CreatedAt,
		},
	}
	for _, userID := range []string{couple.UserAID, couple.UserBID} {
		n.sendHint(userID, msg)
		n.sendPush(userID, "You're paired!", "Your partner connected with you.")
	}
}

// PairDissolved hints the non-initiating member that the couple ended.
func (n *HintNotifier) PairDissolved(couple *models.Couple, initiatorID string) {
	msg := HintMessage{Type: HintPairDeleted, CoupleID: couple.ID}
	n.sendHint(initiatorID, msg)
	if partnerID := couple.PartnerOf(initiatorID); partnerID != "" {
		n.sendHint(partnerID, msg)
		n.sendPush(partnerID, "Pairing ended", "Your partner unpaired.")
	}
}

// SessionCompleted hints the waiting partner that the session finished.
func (n *HintNotifier) SessionCompleted(session *models.Session, userID string) {
	if userID == "" {
		return
	}
	n.sendHint(userID, HintMessage{
		Type:      HintSessionCompleted,
		SessionID: session.ID,
		CoupleID:  session.CoupleID,
	})
	n.sendPush(userID, "Results are in!", "Your partner finished — see how you matched.")
}

// QuestCompleted hints the partner that today's quest is done.
func (n *HintNotifier) QuestCompleted(quest *models.DailyQuest, userID string) {
	if userID == "" {
		return
	}
	n.sendHint(userID, HintMessage{
		Type:     HintQuestCompleted,
		QuestID:  quest.ID,
		CoupleID: quest.CoupleID,
	})
}

func (n *HintNotifier) sendHint(userID string, msg HintMessage) {
	if n.hub == nil {
		return
	}
	if err := n.hub.Send(userID, msg); err != nil {
		log.Debug().
			Err(err).
			Str("user_id", userID).
			Str("type", msg.Type).
			Msg("WebSocket hint not delivered")
	}
}

func (n *HintNotifier) sendPush(userID, title, body string) {
	if n.push == nil || n.users == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := n.users.GetByID(ctx, userID)
	if err != nil || user.PushToken == nil {
		return
	}

	if ok := n.push.Send(*user.PushToken, title, body); !ok {
		log.Debug().
			Str("user_id", userID).
			Msg("Push hint not delivered")
	}
}

var _ Notifier = (*HintNotifier)(nil)
