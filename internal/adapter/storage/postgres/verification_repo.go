package postgres

import (
	"context"
	"errors"
	"fmt"

	"zk-lending-engine/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// VerificationRepo implements ports.VerificationRepository.
type VerificationRepo struct {
	pool Pool
}

// NewVerificationRepo creates a new VerificationRepo.
func NewVerificationRepo(pool Pool) *VerificationRepo {
	return &VerificationRepo{pool: pool}
}

const verificationColumns = `proof_hash, borrower, is_valid, score, processed, reported_at`

// Upsert overwrites the entry for the hash, resetting the consumption
// marker to whatever the result carries.
func (r *VerificationRepo) Upsert(ctx context.Context, tx pgx.Tx, result *domain.VerificationResult) error {
	query := `INSERT INTO verifications (proof_hash, borrower, is_valid, score, processed, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (proof_hash) DO UPDATE SET
			borrower = EXCLUDED.borrower,
			is_valid = EXCLUDED.is_valid,
			score = EXCLUDED.score,
			processed = EXCLUDED.processed,
			reported_at = EXCLUDED.reported_at`

	_, err := tx.Exec(ctx, query,
		result.ProofHash, result.Borrower, result.IsValid,
		result.Score, result.Processed, result.ReportedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert verification: %w", err)
	}
	return nil
}

// Get fetches a verification result by proof hash (without locking).
func (r *VerificationRepo) Get(ctx context.Context, hash domain.ProofHash) (*domain.VerificationResult, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE proof_hash = $1`

	result := &domain.VerificationResult{}
	err := r.pool.QueryRow(ctx, query, hash).Scan(
		&result.ProofHash, &result.Borrower, &result.IsValid,
		&result.Score, &result.Processed, &result.ReportedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get verification: %w", err)
	}
	return result, nil
}

// GetForUpdate fetches a verification result with pessimistic locking.
// This MUST be called within a transaction.
func (r *VerificationRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, hash domain.ProofHash) (*domain.VerificationResult, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE proof_hash = $1 FOR UPDATE`

	result := &domain.VerificationResult{}
	err := tx.QueryRow(ctx, query, hash).Scan(
		&result.ProofHash, &result.Borrower, &result.IsValid,
		&result.Score, &result.Processed, &result.ReportedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get verification for update: %w", err)
	}
	return result, nil
}

// MarkProcessed consumes the result. Called in the same transaction as
// the origination it backs.
func (r *VerificationRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, hash domain.ProofHash) error {
	query := `UPDATE verifications SET processed = TRUE WHERE proof_hash = $1`

	tag, err := tx.Exec(ctx, query, hash)
	if err != nil {
		return fmt.Errorf("mark verification processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark verification processed: no entry for hash %s", hash)
	}
	return nil
}
