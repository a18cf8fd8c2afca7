package services

import (
	"context"
	"time"

	"couple-sync-backend/internal/models"
)

// Storage interfaces consumed by the services. The pgx repositories
// implement them in production; tests substitute in-memory fakes.

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	UpdateAvatarKey(ctx context.Context, userID, avatarKey string) error
	Archive(ctx context.Context, userID string) error
}

// CoupleStore persists couples.
type CoupleStore interface {
	Create(ctx context.Context, couple *models.Couple) error
	GetByID(ctx context.Context, id string) (*models.Couple, error)
	GetActiveByUserID(ctx context.Context, userID string) (*models.Couple, error)
	UserHasActiveCouple(ctx context.Context, userID string) (bool, error)
	Dissolve(ctx context.Context, id string) error
}

// PairingCodeStore persists single-use pairing codes.
type PairingCodeStore interface {
	Create(ctx context.Context, code *models.PairingCode) error
	Get(ctx context.Context, code string) (*models.PairingCode, error)
	Consume(ctx context.Context, code, redeemerID string, now time.Time) (string, error)
}

// SessionStore persists two-party activity sessions. GetOrCreate and
// AppendAnswers must be atomic in the sense described on the pgx
// implementation: concurrent creators converge on one row, and exactly
// one submission observes the completing transition.
type SessionStore interface {
	GetOrCreate(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	AppendAnswers(ctx context.Context, sessionID, userID string, answers []string) (*models.Session, error)
	SetOutcome(ctx context.Context, sessionID string, outcome *models.Outcome) error
	AbandonOpenByCouple(ctx context.Context, coupleID string) (int64, error)
}

// RewardStore persists the append-only reward ledger. Debit must be
// atomic: the floor check and the insert happen as one operation so
// concurrent debits cannot jointly overdraw.
type RewardStore interface {
	Insert(ctx context.Context, tx *models.RewardTransaction) (*models.RewardTransaction, bool, error)
	Debit(ctx context.Context, tx *models.RewardTransaction, floor int) (*models.RewardTransaction, error)
	SumByUser(ctx context.Context, userID string) (int, error)
	RecentByUser(ctx context.Context, userID string, limit int) ([]*models.RewardTransaction, error)
}

// QuestStore persists daily quests.
type QuestStore interface {
	GetOrCreate(ctx context.Context, quest *models.DailyQuest) (*models.DailyQuest, error)
	GetByID(ctx context.Context, id string) (*models.DailyQuest, error)
	MarkDone(ctx context.Context, questID, userID string) (*models.DailyQuest, error)
	CompletedDayKeys(ctx context.Context, coupleID string, activity models.ActivityType, limit int) ([]string, error)
}

// Notifier delivers best-effort hints to clients. Implementations must
// never fail the caller's primary flow; a lost hint is recovered by the
// client's polling loop.
type Notifier interface {
	PairCreated(couple *models.Couple)
	PairDissolved(couple *models.Couple, initiatorID string)
	SessionCompleted(session *models.Session, userID string)
	QuestCompleted(quest *models.DailyQuest, userID string)
}

// NopNotifier discards all hints.
type NopNotifier struct{}

func (NopNotifier) PairCreated(*models.Couple)                {}
func (NopNotifier) PairDissolved(*models.Couple, string)      {}
func (NopNotifier) SessionCompleted(*models.Session, string)  {}
func (NopNotifier) QuestCompleted(*models.DailyQuest, string) {}
