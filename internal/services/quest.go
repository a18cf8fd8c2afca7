package services

import (
	"context"
	"fmt"
	"time"

	"couple-sync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// streakScanLimit caps how many completed days the streak walk loads.
// A streak longer than a year is counted up to this bound.
const streakScanLimit = 400

// QuestService maps completed sessions onto the couple's daily
// obligation and maintains the consecutive-day streak.
type QuestService struct {
	store   QuestStore
	couples CoupleStore

	// streakActivity is the quest type whose completion feeds the streak.
	streakActivity models.ActivityType
	notifier       Notifier
	now            func() time.Time
}

// NewQuestService creates a new quest service
func NewQuestService(store QuestStore, couples CoupleStore, notifier Notifier) *QuestService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &QuestService{
		store:          store,
		couples:        couples,
		streakActivity: models.ActivityDailyCheckin,
		notifier:       notifier,
		now:            time.Now,
	}
}

// GetOrCreate returns the one quest for (couple, day, activity), binding
// it to the given session on first creation. A quest is never recreated
// for the same day.
func (s *QuestService) GetOrCreate(ctx context.Context, coupleID string, activity models.ActivityType, dayKey, sessionID string) (*models.DailyQuest, error) {
	if !activity.Valid() {
		return nil, models.ErrInvalidActivity
	}
	if dayKey == "" {
		dayKey = models.DayKeyFor(s.now())
	}

	candidate := &models.DailyQuest{
		ID:           uuid.New().String(),
		CoupleID:     coupleID,
		DayKey:       dayKey,
		ActivityType: activity,
		SessionID:    sessionID,
		Done:         map[string]bool{},
		Status:       models.QuestPending,
		CreatedAt:    s.now(),
	}

	quest, err := s.store.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create quest: %w", err)
	}
	return quest, nil
}

// Get returns a quest by id.
func (s *QuestService) Get(ctx context.Context, questID string) (*models.DailyQuest, error) {
	return s.store.GetByID(ctx, questID)
}

// CompleteForUser marks one user's half of the quest done. Calling it
// twice for the same user is a no-op, not an error; the second distinct
// user's call is the one that moves the quest to completed.
func (s *QuestService) CompleteForUser(ctx context.Context, questID, userID string) (*models.DailyQuest, error) {
	quest, err := s.store.GetByID(ctx, questID)
	if err != nil {
		return nil, err
	}
	couple, err := s.couples.GetByID(ctx, quest.CoupleID)
	if err != nil {
		return nil, err
	}
	if !couple.HasMember(userID) {
		return nil, models.ErrNotCoupleMember
	}

	wasCompleted := quest.Status == models.QuestCompleted

	updated, err := s.store.MarkDone(ctx, questID, userID)
	if err != nil {
		return nil, err
	}

	if !wasCompleted && updated.Status == models.QuestCompleted {
		log.Info().
			Str("quest_id", questID).
			Str("couple_id", updated.CoupleID).
			Str("day_key", updated.DayKey).
			Msg("Daily quest completed")
		s.notifier.QuestCompleted(updated, couple.PartnerOf(userID))
	}

	return updated, nil
}

// CurrentStreak counts consecutive days with a fully-completed
// streak-eligible quest, walking backward from today. The current day is
// not required to have happened yet: a streak ending yesterday is still
// live, while a gap of a full day resets it.
func (s *QuestService) CurrentStreak(ctx context.Context, coupleID string) (int, error) {
	days, err := s.store.CompletedDayKeys(ctx, coupleID, s.streakActivity, streakScanLimit)
	if err != nil {
		return 0, err
	}
	return streakFrom(days, s.now()), nil
}

func streakFrom(completedDays []string, today time.Time) int {
	completed := make(map[string]bool, len(completedDays))
	for _, day := range completedDays {
		completed[day] = true
	}

	cursor := today.UTC()
	if !completed[models.DayKeyFor(cursor)] {
		// Grace window: today has not been completed (or happened) yet.
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for completed[models.DayKeyFor(cursor)] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
