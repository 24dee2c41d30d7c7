package postgres

import (
	"context"
	"errors"
	"fmt"

	"zk-lending-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OfferRepo implements ports.OfferRepository.
type OfferRepo struct {
	pool Pool
}

// NewOfferRepo creates a new OfferRepo.
func NewOfferRepo(pool Pool) *OfferRepo {
	return &OfferRepo{pool: pool}
}

const offerColumns = `id, lender, amount, interest_rate, duration, collateral_ratio, min_score, active, created_at`

// Create inserts the offer and assigns its sequence-backed ID.
func (r *OfferRepo) Create(ctx context.Context, tx pgx.Tx, offer *domain.LoanOffer) error {
	query := `INSERT INTO offers (lender, amount, interest_rate, duration, collateral_ratio, min_score, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	err := tx.QueryRow(ctx, query,
		offer.Lender, offer.Amount, offer.InterestRate, offer.Duration,
		offer.CollateralRatio, offer.MinScore, offer.Active, offer.CreatedAt,
	).Scan(&offer.ID)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// GetByID fetches an offer by ID (without locking).
func (r *OfferRepo) GetByID(ctx context.Context, id int64) (*domain.LoanOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	offer := &domain.LoanOffer{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&offer.ID, &offer.Lender, &offer.Amount, &offer.InterestRate, &offer.Duration,
		&offer.CollateralRatio, &offer.MinScore, &offer.Active, &offer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get offer by id: %w", err)
	}
	return offer, nil
}

// GetByIDForUpdate fetches an offer with pessimistic locking.
// This MUST be called within a transaction.
func (r *OfferRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.LoanOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1 FOR UPDATE`

	offer := &domain.LoanOffer{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&offer.ID, &offer.Lender, &offer.Amount, &offer.InterestRate, &offer.Duration,
		&offer.CollateralRatio, &offer.MinScore, &offer.Active, &offer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get offer for update: %w", err)
	}
	return offer, nil
}

// Deactivate flips the active flag off within a transaction.
func (r *OfferRepo) Deactivate(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `UPDATE offers SET active = FALSE WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deactivate offer: no offer with id %d", id)
	}
	return nil
}

// ListByLender returns the lender's offers in creation order.
func (r *OfferRepo) ListByLender(ctx context.Context, lender uuid.UUID) ([]domain.LoanOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE lender = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, lender)
	if err != nil {
		return nil, fmt.Errorf("list offers by lender: %w", err)
	}
	defer rows.Close()

	var offers []domain.LoanOffer
	for rows.Next() {
		var offer domain.LoanOffer
		if err := rows.Scan(
			&offer.ID, &offer.Lender, &offer.Amount, &offer.InterestRate, &offer.Duration,
			&offer.CollateralRatio, &offer.MinScore, &offer.Active, &offer.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}
	return offers, nil
}
