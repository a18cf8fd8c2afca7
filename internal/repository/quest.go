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

// QuestRepository handles database operations for daily quests
type QuestRepository struct {
	db *pgxpool.Pool
}

// NewQuestRepository creates a new quest repository
func NewQuestRepository(db *pgxpool.Pool) *QuestRepository {
	return &QuestRepository{db: db}
}

const questCols = `id, couple_id, day_key, activity_type, session_id, done, status, completed_at, created_at`

// GetOrCreate inserts the quest if none exists for the
// (couple, day, activity) key, then returns whichever row won. A quest is
// never recreated for the same day once it exists.
func (r *QuestRepository) GetOrCreate(ctx context.Context, quest *models.DailyQuest) (*models.DailyQuest, error) {
	query := `
		INSERT INTO daily_quests (id, couple_id, day_key, activity_type, session_id, done, status, created_at)
		VALUES ($1, $2, $3, $4, $5, '{}', 'pending', $6)
		ON CONFLICT (couple_id, day_key, activity_type) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		quest.ID, quest.CoupleID, quest.DayKey, string(quest.ActivityType),
		quest.SessionID, quest.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quest: %w", err)
	}

	return r.GetByKey(ctx, quest.CoupleID, quest.DayKey, quest.ActivityType)
}

// GetByID retrieves a quest by ID
func (r *QuestRepository) GetByID(ctx context.Context, id string) (*models.DailyQuest, error) {
	query := `SELECT ` + questCols + ` FROM daily_quests WHERE id = $1`
	return scanQuest(r.db.QueryRow(ctx, query, id))
}

// GetByKey retrieves a quest by its deterministic composite key
func (r *QuestRepository) GetByKey(ctx context.Context, coupleID, dayKey string, activity models.ActivityType) (*models.DailyQuest, error) {
	query := `SELECT ` + questCols + ` FROM daily_quests WHERE couple_id = $1 AND day_key = $2 AND activity_type = $3`
	return scanQuest(r.db.QueryRow(ctx, query, coupleID, dayKey, string(activity)))
}

// MarkDone sets one user's completion flag. The update is idempotent: a
// repeated call for the same user leaves the row untouched. The first
// flag moves the quest to partial, the second to completed, and
// completed_at is stamped only on that final transition.
func (r *QuestRepository) MarkDone(ctx context.Context, questID, userID string) (*models.DailyQuest, error) {
	query := `
		UPDATE daily_quests
		SET done = done || jsonb_build_object($2::text, true),
		    status = CASE
		        WHEN done ? $2 THEN status
		        WHEN done = '{}'::jsonb THEN 'partial'
		        ELSE 'completed'
		    END,
		    completed_at = CASE
		        WHEN NOT done ? $2 AND done <> '{}'::jsonb THEN now()
		        ELSE completed_at
		    END
		WHERE id = $1
		RETURNING ` + questCols
	return scanQuest(r.db.QueryRow(ctx, query, questID, userID))
}

// CompletedDayKeys returns the day keys with a fully-completed quest of
// the given activity for a couple, newest first, capped at limit.
func (r *QuestRepository) CompletedDayKeys(ctx context.Context, coupleID string, activity models.ActivityType, limit int) ([]string, error) {
	query := `
		SELECT day_key
		FROM daily_quests
		WHERE couple_id = $1 AND activity_type = $2 AND status = 'completed'
		ORDER BY day_key DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, coupleID, string(activity), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan day key: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func scanQuest(row pgx.Row) (*models.DailyQuest, error) {
	var (
		quest    models.DailyQuest
		activity string
		status   string
		done     []byte
	)
	err := row.Scan(
		&quest.ID, &quest.CoupleID, &quest.DayKey, &activity, &quest.SessionID,
		&done, &status, &quest.CompletedAt, &quest.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quest: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan quest: %w", err)
	}

	quest.ActivityType = models.ActivityType(activity)
	quest.Status = models.QuestStatus(status)
	if err := json.Unmarshal(done, &quest.Done); err != nil {
		return nil, fmt.Errorf("failed to unmarshal done flags: %w", err)
	}
	return &quest, nil
}
