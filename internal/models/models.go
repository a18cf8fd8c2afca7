package models

import "time"

// User represents a user in the system. Users are never deleted,
// only soft-archived via ArchivedAt.
type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	AvatarKey   *string    `json:"avatar_key,omitempty"`
	Token       string     `json:"token,omitempty"`
	PushToken   *string    `json:"push_token,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// Couple represents a durable pairing between two users.
// UserAID is always lexicographically smaller than UserBID.
type Couple struct {
	ID          string     `json:"id"`
	UserAID     string     `json:"user_a_id"`
	UserBID     string     `json:"user_b_id"`
	CreatedAt   time.Time  `json:"created_at"`
	DissolvedAt *time.Time `json:"dissolved_at,omitempty"`
}

// PartnerOf returns the other member of the couple, or "" if userID
// is not a member.
func (c *Couple) PartnerOf(userID string) string {
	switch userID {
	case c.UserAID:
		return c.UserBID
	case c.UserBID:
		return c.UserAID
	}
	return ""
}

// HasMember reports whether userID belongs to the couple.
func (c *Couple) HasMember(userID string) bool {
	return userID == c.UserAID || userID == c.UserBID
}

// PairingCode is an ephemeral single-use code used to establish a couple.
type PairingCode struct {
	Code       string     `json:"code"`
	OwnerID    string     `json:"owner_id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	ConsumedBy *string    `json:"consumed_by,omitempty"`
}

// SessionStatus is the lifecycle state of a two-party session.
type SessionStatus string

const (
	SessionAwaitingFirst  SessionStatus = "awaiting_first"
	SessionAwaitingSecond SessionStatus = "awaiting_second"
	SessionCompleted      SessionStatus = "completed"
	SessionAbandoned      SessionStatus = "abandoned"
)

// Terminal reports whether no further submissions are accepted.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// Outcome is the shared result of a completed session, computed once
// from both answer sets by the activity's scoring function.
type Outcome struct {
	Score   int `json:"score"`
	Matches int `json:"matches"`
	Total   int `json:"total"`
}

// Session is one instance of a two-party asynchronous activity.
// Answers maps user id to that user's ordered submitted values; a user
// can never write under the partner's key.
type Session struct {
	ID           string              `json:"id"`
	CoupleID     string              `json:"couple_id"`
	ActivityType ActivityType        `json:"activity_type"`
	DayKey       string              `json:"day_key"`
	Prompts      []string            `json:"prompts"`
	Answers      map[string][]string `json:"answers"`
	Status       SessionStatus       `json:"status"`
	Outcome      *Outcome            `json:"outcome,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// RewardTransaction is an immutable ledger entry. At most one transaction
// may exist per (user id, reason, related id) when RelatedID is set.
type RewardTransaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	RelatedID *string   `json:"related_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestStatus tracks a daily quest through pending -> partial -> completed.
// There are no backward transitions.
type QuestStatus string

const (
	QuestPending   QuestStatus = "pending"
	QuestPartial   QuestStatus = "partial"
	QuestCompleted QuestStatus = "completed"
)

// DailyQuest binds an activity to completion tracking for one couple
// and one day. One instance per (couple id, day key, activity type).
type DailyQuest struct {
	ID           string          `json:"id"`
	CoupleID     string          `json:"couple_id"`
	DayKey       string          `json:"day_key"`
	ActivityType ActivityType    `json:"activity_type"`
	SessionID    string          `json:"session_id"`
	Done         map[string]bool `json:"done"`
	Status       QuestStatus     `json:"status"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DayKeyFormat is the layout for day keys. Day keys are computed in UTC.
const DayKeyFormat = "2006-01-02"

// DayKeyFor returns the day key for the given instant.
func DayKeyFor(t time.Time) string {
	return t.UTC().Format(DayKeyFormat)
}
