package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couple-sync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RewardService manages the Love Points ledger: an append-only
// transaction log with an idempotent award path and a protected
// minimum balance.
type RewardService struct {
	store RewardStore

	floor int
	now   func() time.Time
}

// NewRewardService creates a new reward service. floor is the protected
// minimum balance.
func NewRewardService(store RewardStore, floor int) *RewardService {
	return &RewardService{
		store: store,
		floor: floor,
		now:   time.Now,
	}
}

// Award grants points exactly once per (user, reason, related entity).
// A repeated award for the same triple is not an error: the prior
// transaction is returned and the ledger is untouched. This is what
// keeps the submit path and the waiting-screen sync path from
// double-crediting the same completion.
func (s *RewardService) Award(ctx context.Context, userID string, amount int, reason string, relatedID *string) (*models.RewardTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("award amount must be positive, got %d", amount)
	}

	tx := &models.RewardTransaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		RelatedID: relatedID,
		CreatedAt: s.now(),
	}

	stored, created, err := s.store.Insert(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to record award: %w", err)
	}
	if created {
		log.Info().
			Str("user_id", userID).
			Int("amount", amount).
			Str("reason", reason).
			Msg("Points awarded")
	}
	return stored, nil
}

// Spend debits points. The debit is refused outright when it would take
// the raw balance below the protected floor; the store performs the
// check and the insert atomically, so concurrent spends that each look
// affordable in isolation cannot jointly overdraw.
func (s *RewardService) Spend(ctx context.Context, userID string, amount int, reason string, relatedID *string) (*models.RewardTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("spend amount must be positive, got %d", amount)
	}

	tx := &models.RewardTransaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    -amount,
		Reason:    reason,
		RelatedID: relatedID,
		CreatedAt: s.now(),
	}
	stored, err := s.store.Debit(ctx, tx, s.floor)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientPoints) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record spend: %w", err)
	}
	return stored, nil
}

// Balance returns the user's point balance, clamped at the floor. Even
// if raw arithmetic goes lower the reported balance never does.
func (s *RewardService) Balance(ctx context.Context, userID string) (int, error) {
	sum, err := s.store.SumByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if sum < s.floor {
		return s.floor, nil
	}
	return sum, nil
}

// Recent returns the newest transactions for a user, newest first.
func (s *RewardService) Recent(ctx context.Context, userID string, limit int) ([]*models.RewardTransaction, error) {
	return s.store.RecentByUser(ctx, userID, limit)
}
