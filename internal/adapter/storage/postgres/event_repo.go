package postgres

import (
	"context"
	"fmt"

	"zk-lending-engine/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.EventRepository. The log is append-only; the
// sequence column is the single global ordering across all event types.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// Append inserts the event and assigns its global sequence number.
func (r *EventRepo) Append(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	query := `INSERT INTO events (type, actor, offer_id, loan_id, proof_hash, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING sequence`

	err := tx.QueryRow(ctx, query,
		event.Type, event.Actor, event.OfferID, event.LoanID,
		event.ProofHash, event.Payload, event.CreatedAt,
	).Scan(&event.Sequence)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListByLoan returns a loan's events in sequence order.
func (r *EventRepo) ListByLoan(ctx context.Context, loanID int64) ([]domain.Event, error) {
	query := `SELECT sequence, type, actor, offer_id, loan_id, proof_hash, payload, created_at
		FROM events WHERE loan_id = $1 ORDER BY sequence`

	rows, err := r.pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("list events by loan: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(
			&event.Sequence, &event.Type, &event.Actor, &event.OfferID,
			&event.LoanID, &event.ProofHash, &event.Payload, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
