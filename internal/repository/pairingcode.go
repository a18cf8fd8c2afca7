package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couple-sync-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PairingCodeRepository handles database operations for pairing codes
type PairingCodeRepository struct {
	db *pgxpool.Pool
}

// NewPairingCodeRepository creates a new pairing code repository
func NewPairingCodeRepository(db *pgxpool.Pool) *PairingCodeRepository {
	return &PairingCodeRepository{db: db}
}

// Create inserts a new pairing code
func (r *PairingCodeRepository) Create(ctx context.Context, code *models.PairingCode) error {
	query := `
		INSERT INTO pairing_codes (code, owner_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, code.Code, code.OwnerID, code.CreatedAt, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create pairing code: %w", err)
	}
	return nil
}

// Get retrieves a pairing code
func (r *PairingCodeRepository) Get(ctx context.Context, code string) (*models.PairingCode, error) {
	query := `
		SELECT code, owner_id, created_at, expires_at, consumed_at, consumed_by
		FROM pairing_codes
		WHERE code = $1
	`
	var pc models.PairingCode
	err := r.db.QueryRow(ctx, query, code).Scan(
		&pc.Code, &pc.OwnerID, &pc.CreatedAt, &pc.ExpiresAt, &pc.ConsumedAt, &pc.ConsumedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get pairing code: %w", err)
	}
	return &pc, nil
}

// Consume atomically marks a code as used and returns its owner. The
// conditional update serializes concurrent redemptions: exactly one
// caller wins, every other caller gets ErrCodeAlreadyUsed or
// ErrCodeExpired depending on the code's state.
func (r *PairingCodeRepository) Consume(ctx context.Context, code, redeemerID string, now time.Time) (string, error) {
	query := `
		UPDATE pairing_codes
		SET consumed_at = $3, consumed_by = $2
		WHERE code = $1 AND consumed_at IS NULL AND expires_at > $3
		RETURNING owner_id
	`
	var ownerID string
	err := r.db.QueryRow(ctx, query, code, redeemerID, now).Scan(&ownerID)
	if err == nil {
		return ownerID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("failed to consume pairing code: %w", err)
	}

	// Lost the conditional update; re-read to report why.
	pc, getErr := r.Get(ctx, code)
	if getErr != nil {
		return "", getErr
	}
	if pc.ConsumedAt != nil {
		return "", models.ErrCodeAlreadyUsed
	}
	return "", models.ErrCodeExpired
}

// DeleteExpired removes codes that expired before the cutoff.
func (r *PairingCodeRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM pairing_codes WHERE expires_at < $1 AND consumed_at IS NULL`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired codes: %w", err)
	}
	return result.RowsAffected(), nil
}
