package repository

import (
	"context"
	"errors"
	"fmt"

	"couple-sync-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CoupleRepository handles database operations for couples
type CoupleRepository struct {
	db *pgxpool.Pool
}

// NewCoupleRepository creates a new couple repository
func NewCoupleRepository(db *pgxpool.Pool) *CoupleRepository {
	return &CoupleRepository{db: db}
}

const coupleCols = `id, user_a_id, user_b_id, created_at, dissolved_at`

// Create inserts a new active couple together with its membership rows.
// The primary key on couple_members.user_id enforces the
// single-active-couple invariant across both member slots, so two
// concurrent pairings sharing a user cannot both commit even when that
// user lands in different columns of the couples rows. A violation is
// reported as ErrAlreadyPaired rather than a bare constraint error.
func (r *CoupleRepository) Create(ctx context.Context, couple *models.Couple) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO couples (id, user_a_id, user_b_id, created_at) VALUES ($1, $2, $3, $4)`,
			couple.ID, couple.UserAID, couple.UserBID, couple.CreatedAt,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO couple_members (user_id, couple_id) VALUES ($1, $3), ($2, $3)`,
			couple.UserAID, couple.UserBID, couple.ID,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrAlreadyPaired
		}
		return fmt.Errorf("failed to create couple: %w", err)
	}
	return nil
}

// GetByID retrieves a couple by ID
func (r *CoupleRepository) GetByID(ctx context.Context, id string) (*models.Couple, error) {
	query := `SELECT ` + coupleCols + ` FROM couples WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetActiveByUserID retrieves the active couple a user belongs to.
// Membership rows only exist for active couples, so the join cannot
// match more than one row.
func (r *CoupleRepository) GetActiveByUserID(ctx context.Context, userID string) (*models.Couple, error) {
	query := `
		SELECT c.id, c.user_a_id, c.user_b_id, c.created_at, c.dissolved_at
		FROM couples c
		JOIN couple_members m ON m.couple_id = c.id
		WHERE m.user_id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

// UserHasActiveCouple checks if a user is currently paired
func (r *CoupleRepository) UserHasActiveCouple(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM couple_members WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active couple: %w", err)
	}
	return exists, nil
}

// Dissolve marks a couple as unpaired and frees both members to pair
// again. Dissolving twice is a no-op.
func (r *CoupleRepository) Dissolve(ctx context.Context, id string) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE couples SET dissolved_at = now() WHERE id = $1 AND dissolved_at IS NULL`, id,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM couple_members WHERE couple_id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to dissolve couple: %w", err)
	}
	return nil
}

func (r *CoupleRepository) scanOne(row pgx.Row) (*models.Couple, error) {
	var couple models.Couple
	err := row.Scan(&couple.ID, &couple.UserAID, &couple.UserBID, &couple.CreatedAt, &couple.DissolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("couple: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get couple: %w", err)
	}
	return &couple, nil
}
