package repository

import (
	"context"
	"errors"
	"fmt"

	"couple-sync-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RewardRepository handles database operations for the reward ledger
type RewardRepository struct {
	db *pgxpool.Pool
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db *pgxpool.Pool) *RewardRepository {
	return &RewardRepository{db: db}
}

const rewardCols = `id, user_id, amount, reason, related_id, created_at`

// Insert appends a transaction to the ledger. When the transaction
// carries a related entity id, the partial unique index makes the insert
// idempotent: a duplicate (user, reason, related) insert is dropped and
// the prior transaction is returned instead, with created reporting
// whether this call appended a new row.
func (r *RewardRepository) Insert(ctx context.Context, tx *models.RewardTransaction) (*models.RewardTransaction, bool, error) {
	query := `
		INSERT INTO reward_transactions (id, user_id, amount, reason, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, reason, related_id) WHERE related_id IS NOT NULL DO NOTHING
		RETURNING ` + rewardCols
	inserted, err := scanTransaction(r.db.QueryRow(ctx, query,
		tx.ID, tx.UserID, tx.Amount, tx.Reason, tx.RelatedID, tx.CreatedAt,
	))
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	// Conflict: return the transaction that already holds the slot.
	existing, err := r.getByTriple(ctx, tx.UserID, tx.Reason, tx.RelatedID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Debit appends a negative transaction only if the resulting balance
// stays at or above floor. The check and the insert run in one
// transaction under a per-user advisory lock, so two concurrent debits
// that each individually clear the floor cannot jointly overdraw: the
// second one waits, re-reads the sum, and is refused. A refused debit
// is reported as ErrInsufficientPoints.
func (r *RewardRepository) Debit(ctx context.Context, tx *models.RewardTransaction, floor int) (*models.RewardTransaction, error) {
	var stored *models.RewardTransaction
	err := pgx.BeginFunc(ctx, r.db, func(dbtx pgx.Tx) error {
		if _, err := dbtx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, tx.UserID); err != nil {
			return err
		}

		query := `
			INSERT INTO reward_transactions (id, user_id, amount, reason, related_id, created_at)
			SELECT $1, $2, $3, $4, $5, $6
			WHERE (SELECT COALESCE(SUM(amount), 0) FROM reward_transactions WHERE user_id = $2) + $3 >= $7
			RETURNING ` + rewardCols
		inserted, err := scanTransaction(dbtx.QueryRow(ctx, query,
			tx.ID, tx.UserID, tx.Amount, tx.Reason, tx.RelatedID, tx.CreatedAt, floor,
		))
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrInsufficientPoints
			}
			return err
		}
		stored = inserted
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrInsufficientPoints) {
			return nil, models.ErrInsufficientPoints
		}
		return nil, fmt.Errorf("failed to record debit: %w", err)
	}
	return stored, nil
}

func (r *RewardRepository) getByTriple(ctx context.Context, userID, reason string, relatedID *string) (*models.RewardTransaction, error) {
	query := `
		SELECT ` + rewardCols + `
		FROM reward_transactions
		WHERE user_id = $1 AND reason = $2 AND related_id = $3
	`
	return scanTransaction(r.db.QueryRow(ctx, query, userID, reason, relatedID))
}

// SumByUser returns the raw signed sum of all transactions for a user.
func (r *RewardRepository) SumByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM reward_transactions WHERE user_id = $1`
	var sum int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}

// RecentByUser returns the newest transactions for a user, newest first.
func (r *RewardRepository) RecentByUser(ctx context.Context, userID string, limit int) ([]*models.RewardTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT ` + rewardCols + `
		FROM reward_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.RewardTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row pgx.Row) (*models.RewardTransaction, error) {
	var tx models.RewardTransaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Reason, &tx.RelatedID, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reward transaction: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return &tx, nil
}
