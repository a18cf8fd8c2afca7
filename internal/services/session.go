package services

import (
	"context"
	"fmt"
	"time"

	"couple-sync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionService drives the two-party session lifecycle: deterministic
// creation, per-user answer submission, the exactly-once completion
// transition, and the completion side effects (rewards, quest flags,
// partner hints).
type SessionService struct {
	sessions SessionStore
	couples  CoupleStore
	rewards  *RewardService
	quests   *QuestService
	prompts  PromptSource
	notifier Notifier

	completionAward int
	now             func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(
	sessions SessionStore,
	couples CoupleStore,
	rewards *RewardService,
	quests *QuestService,
	prompts PromptSource,
	notifier Notifier,
	completionAward int,
) *SessionService {
	if prompts == nil {
		prompts = DefaultPromptSource{}
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if completionAward <= 0 {
		completionAward = 30
	}
	return &SessionService{
		sessions:        sessions,
		couples:         couples,
		rewards:         rewards,
		quests:          quests,
		prompts:         prompts,
		notifier:        notifier,
		completionAward: completionAward,
		now:             time.Now,
	}
}

// SubmitResult reports the effect of one answer submission.
type SubmitResult struct {
	Session   *models.Session `json:"session"`
	Completed bool            `json:"completed"`
	Outcome   *models.Outcome `json:"outcome,omitempty"`
}

// GetOrCreate returns the one session for (couple, activity, day),
// creating it if this caller is first. Both partners calling concurrently
// converge on the same session id; the store's create-if-absent guarantee
// resolves the race and the loser receives the winner's row.
func (s *SessionService) GetOrCreate(ctx context.Context, coupleID string, activity models.ActivityType, dayKey string, userID string) (*models.Session, error) {
	if !activity.Valid() {
		return nil, models.ErrInvalidActivity
	}
	couple, err := s.couples.GetByID(ctx, coupleID)
	if err != nil {
		return nil, err
	}
	if !couple.HasMember(userID) {
		return nil, models.ErrNotCoupleMember
	}
	if dayKey == "" {
		dayKey = models.DayKeyFor(s.now())
	}

	candidate := &models.Session{
		ID:           uuid.New().String(),
		CoupleID:     coupleID,
		ActivityType: activity,
		DayKey:       dayKey,
		Prompts:      s.prompts.PromptsFor(activity, coupleID, dayKey),
		Answers:      map[string][]string{},
		Status:       models.SessionAwaitingFirst,
		CreatedAt:    s.now(),
	}

	session, err := s.sessions.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create session: %w", err)
	}
	return session, nil
}

// Get returns a session by id, restricted to couple members. This is the
// read path the synchronization poller hits.
func (s *SessionService) Get(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	couple, err := s.couples.GetByID(ctx, session.CoupleID)
	if err != nil {
		return nil, err
	}
	if !couple.HasMember(userID) {
		return nil, models.ErrNotCoupleMember
	}

	// A completed session without an outcome means a finalization was
	// interrupted; finish it now so readers never see a terminal
	// session with no result and the idempotent awards still land.
	if session.Status == models.SessionCompleted && session.Outcome == nil {
		if _, err := s.finalizeCompletion(ctx, session, couple, userID); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// SubmitAnswers records one user's answer set. Resubmission and writes to
// a terminal session are rejected. The submission that lands the second
// answer set is the one that completes the session: that call computes
// the outcome and runs the completion side effects exactly once.
func (s *SessionService) SubmitAnswers(ctx context.Context, sessionID, userID string, answers []string) (*SubmitResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	couple, err := s.couples.GetByID(ctx, session.CoupleID)
	if err != nil {
		return nil, err
	}
	if !couple.HasMember(userID) {
		return nil, models.ErrNotCoupleMember
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("answers must not be empty")
	}

	updated, err := s.sessions.AppendAnswers(ctx, sessionID, userID, answers)
	if err != nil {
		return nil, err
	}

	// Each user completes their half of the day's quest on their own
	// submission; MarkDone is idempotent so retries are harmless.
	s.markQuestProgress(ctx, updated, userID)

	result := &SubmitResult{Session: updated}
	if updated.Status != models.SessionCompleted {
		return result, nil
	}

	outcome, err := s.finalizeCompletion(ctx, updated, couple, userID)
	if err != nil {
		return nil, err
	}
	result.Completed = true
	result.Outcome = outcome

	return result, nil
}

// finalizeCompletion computes and persists the outcome of a completed
// session and runs the completion side effects. The outcome is a pure
// function of the stored answer sets and the outcome write is
// write-once, so finalization can re-run from any observation of a
// completed session that is still missing its outcome: a crash or
// failed write between the status flip and the outcome write is healed
// by the next read instead of stranding a terminal session without a
// result.
func (s *SessionService) finalizeCompletion(ctx context.Context, session *models.Session, couple *models.Couple, readerID string) (*models.Outcome, error) {
	outcome, err := s.computeOutcome(session)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SetOutcome(ctx, session.ID, outcome); err != nil {
		// The computed outcome is still served; the next read retries
		// the write.
		log.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("Failed to persist session outcome")
	}
	session.Outcome = outcome

	s.runCompletionEffects(ctx, session, couple, readerID)

	return outcome, nil
}

func (s *SessionService) computeOutcome(session *models.Session) (*models.Outcome, error) {
	var sets [][]string
	for _, answers := range session.Answers {
		sets = append(sets, answers)
	}
	if len(sets) != 2 {
		return nil, fmt.Errorf("session %s completed with %d answer sets", session.ID, len(sets))
	}
	outcome, err := scoreActivity(session.ActivityType, sets[0], sets[1])
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// runCompletionEffects grants rewards and notifies the waiting partner.
// Every step is idempotent or best-effort, so a retry after a partial
// failure never double-awards and never re-runs a completed step with a
// different result.
func (s *SessionService) runCompletionEffects(ctx context.Context, session *models.Session, couple *models.Couple, submitterID string) {
	reason := string(session.ActivityType) + "_complete"
	for _, userID := range []string{couple.UserAID, couple.UserBID} {
		if _, err := s.rewards.Award(ctx, userID, s.completionAward, reason, &session.ID); err != nil {
			log.Error().
				Err(err).
				Str("session_id", session.ID).
				Str("user_id", userID).
				Msg("Failed to award completion points")
		}
	}

	partnerID := couple.PartnerOf(submitterID)
	s.notifier.SessionCompleted(session, partnerID)
}

func (s *SessionService) markQuestProgress(ctx context.Context, session *models.Session, userID string) {
	quest, err := s.quests.GetOrCreate(ctx, session.CoupleID, session.ActivityType, session.DayKey, session.ID)
	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("Failed to get daily quest")
		return
	}
	if _, err := s.quests.CompleteForUser(ctx, quest.ID, userID); err != nil {
		log.Error().
			Err(err).
			Str("quest_id", quest.ID).
			Str("user_id", userID).
			Msg("Failed to mark quest progress")
	}
}

// AbandonForCouple moves all open sessions of a couple to the abandoned
// state. Called by the pairing service when a couple unpairs.
func (s *SessionService) AbandonForCouple(ctx context.Context, coupleID string) (int64, error) {
	return s.sessions.AbandonOpenByCouple(ctx, coupleID)
}
