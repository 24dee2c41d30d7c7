package ports

import (
	"context"

	"zk-lending-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OfferRepository defines persistence operations for loan offers.
// The per-lender index list is append-only and insertion-ordered.
type OfferRepository interface {
	// Create stores the offer and assigns the next monotonic ID (from 1).
	Create(ctx context.Context, tx pgx.Tx, offer *domain.LoanOffer) error
	GetByID(ctx context.Context, id int64) (*domain.LoanOffer, error)
	// GetByIDForUpdate locks the offer row for the duration of tx.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.LoanOffer, error)
	// Deactivate flips Active false. The flag transitions at most once.
	Deactivate(ctx context.Context, tx pgx.Tx, id int64) error
	ListByLender(ctx context.Context, lender uuid.UUID) ([]domain.LoanOffer, error)
}

// LoanRepository defines persistence operations for loans. Per-borrower and
// per-lender index lists are append-only and insertion-ordered.
type LoanRepository interface {
	// Create stores the loan and assigns the next monotonic ID (from 1).
	Create(ctx context.Context, tx pgx.Tx, loan *domain.Loan) error
	GetByID(ctx context.Context, id int64) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Loan, error)
	// Update persists repayment progress and status transitions.
	Update(ctx context.Context, tx pgx.Tx, loan *domain.Loan) error
	ListByBorrower(ctx context.Context, borrower uuid.UUID) ([]domain.Loan, error)
	ListByLender(ctx context.Context, lender uuid.UUID) ([]domain.Loan, error)
}

// VerificationRepository is the verification-result cache keyed by proof hash.
type VerificationRepository interface {
	// Upsert overwrites the entry for the hash, resetting Processed.
	Upsert(ctx context.Context, tx pgx.Tx, result *domain.VerificationResult) error
	Get(ctx context.Context, hash domain.ProofHash) (*domain.VerificationResult, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, hash domain.ProofHash) (*domain.VerificationResult, error)
	// MarkProcessed consumes the result; called atomically with origination.
	MarkProcessed(ctx context.Context, tx pgx.Tx, hash domain.ProofHash) error
}

// AccountRepository defines the native-value ledger. Debit fails when the
// balance would go negative; both methods require a transaction so that a
// multi-leg settlement commits or rolls back as a unit.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByOwner(ctx context.Context, owner uuid.UUID) (*domain.Account, error)
	GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, owner uuid.UUID) (*domain.Account, error)
	Credit(ctx context.Context, tx pgx.Tx, owner uuid.UUID, amount int64) error
	Debit(ctx context.Context, tx pgx.Tx, owner uuid.UUID, amount int64) error
}

// ReputationRepository persists borrower scores and the authorized-writer
// allow-list.
type ReputationRepository interface {
	// GetScore returns 0 for unseen participants, never a not-found error.
	GetScore(ctx context.Context, participant uuid.UUID) (int64, error)
	// GetScoreForUpdate locks the score row for the duration of tx.
	GetScoreForUpdate(ctx context.Context, tx pgx.Tx, participant uuid.UUID) (int64, error)
	SetScore(ctx context.Context, tx pgx.Tx, participant uuid.UUID, score int64) error
	IsAuthorized(ctx context.Context, caller uuid.UUID) (bool, error)
	Authorize(ctx context.Context, caller uuid.UUID) error
	Deauthorize(ctx context.Context, caller uuid.UUID) error
}

// EventRepository is the append-only settlement log.
type EventRepository interface {
	// Append assigns the next global sequence number to the event.
	Append(ctx context.Context, tx pgx.Tx, event *domain.Event) error
	ListByLoan(ctx context.Context, loanID int64) ([]domain.Event, error)
}

// ParticipantRepository defines persistence operations for identities.
type ParticipantRepository interface {
	Create(ctx context.Context, p *domain.Participant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Participant, error)
	GetByUsername(ctx context.Context, username string) (*domain.Participant, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
