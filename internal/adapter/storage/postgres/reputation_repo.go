package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReputationRepo implements ports.ReputationRepository: one table for
// scores, one for the authorized-writer allow-list.
type ReputationRepo struct {
	pool Pool
}

// NewReputationRepo creates a new ReputationRepo.
func NewReputationRepo(pool Pool) *ReputationRepo {
	return &ReputationRepo{pool: pool}
}

// GetScore returns the participant's score, 0 when unseen.
func (r *ReputationRepo) GetScore(ctx context.Context, participant uuid.UUID) (int64, error) {
	query := `SELECT score FROM reputation_scores WHERE participant = $1`

	var score int64
	err := r.pool.QueryRow(ctx, query, participant).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get score: %w", err)
	}
	return score, nil
}

// GetScoreForUpdate reads the participant's score with a row lock held for
// the duration of tx. 0 when unseen.
func (r *ReputationRepo) GetScoreForUpdate(ctx context.Context, tx pgx.Tx, participant uuid.UUID) (int64, error) {
	query := `SELECT score FROM reputation_scores WHERE participant = $1 FOR UPDATE`

	var score int64
	err := tx.QueryRow(ctx, query, participant).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get score for update: %w", err)
	}
	return score, nil
}

// SetScore overwrites the participant's score within a transaction.
func (r *ReputationRepo) SetScore(ctx context.Context, tx pgx.Tx, participant uuid.UUID, score int64) error {
	query := `INSERT INTO reputation_scores (participant, score, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (participant) DO UPDATE SET score = EXCLUDED.score, updated_at = NOW()`

	if _, err := tx.Exec(ctx, query, participant, score); err != nil {
		return fmt.Errorf("set score: %w", err)
	}
	return nil
}

// IsAuthorized reports whether the caller is on the writer allow-list.
func (r *ReputationRepo) IsAuthorized(ctx context.Context, caller uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reputation_writers WHERE caller = $1)`

	var authorized bool
	if err := r.pool.QueryRow(ctx, query, caller).Scan(&authorized); err != nil {
		return false, fmt.Errorf("check writer allow-list: %w", err)
	}
	return authorized, nil
}

// Authorize adds a caller to the writer allow-list. Idempotent.
func (r *ReputationRepo) Authorize(ctx context.Context, caller uuid.UUID) error {
	query := `INSERT INTO reputation_writers (caller) VALUES ($1) ON CONFLICT DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, caller); err != nil {
		return fmt.Errorf("authorize writer: %w", err)
	}
	return nil
}

// Deauthorize removes a caller from the writer allow-list.
func (r *ReputationRepo) Deauthorize(ctx context.Context, caller uuid.UUID) error {
	query := `DELETE FROM reputation_writers WHERE caller = $1`

	if _, err := r.pool.Exec(ctx, query, caller); err != nil {
		return fmt.Errorf("deauthorize writer: %w", err)
	}
	return nil
}
