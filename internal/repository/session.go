package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"couple-sync-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles database operations for sessions
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionCols = `id, couple_id, activity_type, day_key, prompts, answers, status, outcome, created_at, completed_at`

// GetOrCreate inserts the session if no session exists for the
// (couple, activity, day) key, then returns whichever row won. Two
// concurrent callers converge on the same session: the unique constraint
// makes the insert race-free and the loser simply reads the winner's row.
func (r *SessionRepository) GetOrCreate(ctx context.Context, session *models.Session) (*models.Session, error) {
	prompts, err := json.Marshal(session.Prompts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prompts: %w", err)
	}

	query := `
		INSERT INTO sessions (id, couple_id, activity_type, day_key, prompts, answers, status, created_at)
		VALUES ($1, $2, $3, $4, $5, '{}', $6, $7)
		ON CONFLICT (couple_id, activity_type, day_key) DO NOTHING
	`
	_, err = r.db.Exec(ctx, query,
		session.ID, session.CoupleID, string(session.ActivityType), session.DayKey,
		prompts, string(session.Status), session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return r.GetByKey(ctx, session.CoupleID, session.ActivityType, session.DayKey)
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionCols + ` FROM sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, id))
}

// GetByKey retrieves a session by its deterministic composite key
func (r *SessionRepository) GetByKey(ctx context.Context, coupleID string, activity models.ActivityType, dayKey string) (*models.Session, error) {
	query := `SELECT ` + sessionCols + ` FROM sessions WHERE couple_id = $1 AND activity_type = $2 AND day_key = $3`
	return scanSession(r.db.QueryRow(ctx, query, coupleID, string(activity), dayKey))
}

// AppendAnswers records one user's answer set and advances the lifecycle.
// The single conditional update is the serialization point: it only fires
// while the session is open and the user has no answers yet, the first
// write moves the session to awaiting_second, and the write that lands the
// second answer set moves it to completed and stamps completed_at exactly
// once. The returned session reflects the row after the write; the caller
// that observes status == completed is the completing submitter.
func (r *SessionRepository) AppendAnswers(ctx context.Context, sessionID, userID string, answers []string) (*models.Session, error) {
	payload, err := json.Marshal(map[string][]string{userID: answers})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	query := `
		UPDATE sessions
		SET answers = answers || $2::jsonb,
		    status = CASE WHEN answers = '{}'::jsonb THEN 'awaiting_second' ELSE 'completed' END,
		    completed_at = CASE WHEN answers = '{}'::jsonb THEN completed_at ELSE now() END
		WHERE id = $1
		  AND status IN ('awaiting_first', 'awaiting_second')
		  AND NOT answers ? $3
		RETURNING ` + sessionCols
	session, err := scanSession(r.db.QueryRow(ctx, query, sessionID, payload, userID))
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	// The guarded update did not match; re-read to report why.
	current, getErr := r.GetByID(ctx, sessionID)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status.Terminal() {
		return nil, models.ErrSessionClosed
	}
	if _, ok := current.Answers[userID]; ok {
		return nil, models.ErrAlreadySubmitted
	}
	return nil, fmt.Errorf("failed to append answers to session %s", sessionID)
}

// SetOutcome stores the computed outcome. The outcome is written at most
// once; later writes are no-ops so completion-side-effect retries stay safe.
func (r *SessionRepository) SetOutcome(ctx context.Context, sessionID string, outcome *models.Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	query := `UPDATE sessions SET outcome = $2 WHERE id = $1 AND outcome IS NULL`
	if _, err := r.db.Exec(ctx, query, sessionID, payload); err != nil {
		return fmt.Errorf("failed to set outcome: %w", err)
	}
	return nil
}

// AbandonOpenByCouple moves every open session of a couple to the
// abandoned terminal state. Used when a couple unpairs.
func (r *SessionRepository) AbandonOpenByCouple(ctx context.Context, coupleID string) (int64, error) {
	query := `
		UPDATE sessions
		SET status = 'abandoned'
		WHERE couple_id = $1 AND status IN ('awaiting_first', 'awaiting_second')
	`
	result, err := r.db.Exec(ctx, query, coupleID)
	if err != nil {
		return 0, fmt.Errorf("failed to abandon sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var (
		session  models.Session
		activity string
		status   string
		prompts  []byte
		answers  []byte
		outcome  []byte
	)
	err := row.Scan(
		&session.ID, &session.CoupleID, &activity, &session.DayKey,
		&prompts, &answers, &status, &outcome, &session.CreatedAt, &session.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	session.ActivityType = models.ActivityType(activity)
	session.Status = models.SessionStatus(status)
	if err := json.Unmarshal(prompts, &session.Prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	if err := json.Unmarshal(answers, &session.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}
	if len(outcome) > 0 {
		session.Outcome = &models.Outcome{}
		if err := json.Unmarshal(outcome, session.Outcome); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
		}
	}
	return &session, nil
}
