package ports

import (
	"context"
	"time"

	"zk-lending-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Service Ports (Business Logic) ---

// LendingService is the settlement engine: offer registry, verification
// cache and loan lifecycle. Every mutating call executes inside one
// exclusive critical section; a failed call leaves no partial state.
type LendingService interface {
	CreateOffer(ctx context.Context, req CreateOfferRequest) (*domain.LoanOffer, error)
	CancelOffer(ctx context.Context, lender uuid.UUID, offerID int64) (*domain.LoanOffer, error)
	SubmitProof(ctx context.Context, submitter uuid.UUID, submission domain.ProofSubmission) error
	RecordVerification(ctx context.Context, reporter uuid.UUID, req RecordVerificationRequest) error
	RequestLoan(ctx context.Context, req RequestLoanRequest) (*domain.Loan, error)
	MakePayment(ctx context.Context, req MakePaymentRequest) (*domain.Loan, error)
	CheckDefault(ctx context.Context, caller uuid.UUID, loanID int64) (*domain.Loan, error)

	GetOffer(ctx context.Context, offerID int64) (*domain.LoanOffer, error)
	GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error)
	ListBorrowerLoans(ctx context.Context, borrower uuid.UUID) ([]domain.Loan, error)
	ListLenderLoans(ctx context.Context, lender uuid.UUID) ([]domain.Loan, error)
	ListLenderOffers(ctx context.Context, lender uuid.UUID) ([]domain.LoanOffer, error)
	ListLoanEvents(ctx context.Context, loanID int64) ([]domain.Event, error)
}

// CreateOfferRequest holds validated input for offer creation.
type CreateOfferRequest struct {
	Lender          uuid.UUID
	Amount          int64
	InterestRate    int64 // Basis points
	Duration        int64 // Seconds
	CollateralRatio int64 // Basis points
	MinScore        int64
}

// RecordVerificationRequest is the trusted reporter's result delivery.
type RecordVerificationRequest struct {
	ProofHash domain.ProofHash
	Borrower  uuid.UUID
	IsValid   bool
	Score     int64
}

// RequestLoanRequest holds validated input for loan origination.
// Collateral is the attached value debited from the borrower's account.
type RequestLoanRequest struct {
	Borrower   uuid.UUID
	OfferID    int64
	ProofHash  domain.ProofHash
	Collateral int64
}

// MakePaymentRequest holds validated input for a repayment.
// Amount is the attached value debited from the borrower's account.
type MakePaymentRequest struct {
	Borrower uuid.UUID
	LoanID   int64
	Amount   int64
}

// ReputationService is the authorized-writer-gated score store. Mutations
// accept an optional transaction: a non-nil tx joins the caller's atomic
// unit (the engine passes its open settlement transaction), nil makes the
// service manage its own.
type ReputationService interface {
	// UpdateScore overwrites unconditionally. Caller must be allow-listed.
	UpdateScore(ctx context.Context, tx pgx.Tx, caller, participant uuid.UUID, score int64) error
	// InitializeScore sets the score only if it is currently the zero
	// sentinel; otherwise a no-op. Same authorization gate as UpdateScore.
	InitializeScore(ctx context.Context, tx pgx.Tx, caller, participant uuid.UUID, score int64) error
	// GetScore returns 0 for unseen participants.
	GetScore(ctx context.Context, participant uuid.UUID) (int64, error)
	// GetScoreForUpdate reads the stored score inside the caller's open
	// transaction, bypassing the cache. Settlement arithmetic must use this
	// path: a stale cached value would otherwise be promoted into the store
	// as an absolute score.
	GetScoreForUpdate(ctx context.Context, tx pgx.Tx, participant uuid.UUID) (int64, error)
	// AuthorizeCaller / DeauthorizeCaller mutate the allow-list; admin only.
	AuthorizeCaller(ctx context.Context, admin uuid.UUID, caller uuid.UUID) error
	DeauthorizeCaller(ctx context.Context, admin uuid.UUID, caller uuid.UUID) error
}

// AttestationOracle is the external proof verifier. The engine must be
// pre-authorized by the oracle operator; unauthorized calls fail.
type AttestationOracle interface {
	Verify(ctx context.Context, proof []byte) (bool, error)
	ExtractScore(ctx context.Context, proof []byte) (int64, error)
}

// SubmissionQueue carries proof submissions from submitProof to the
// attestation worker.
type SubmissionQueue interface {
	Enqueue(ctx context.Context, sub domain.ProofSubmission) error
	// Dequeue blocks up to timeout; returns nil when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (*domain.ProofSubmission, error)
}

// ScoreCache is the read-through reputation cache (fast path for
// getBorrowerScore).
type ScoreCache interface {
	Get(ctx context.Context, participant uuid.UUID) (int64, bool, error)
	Set(ctx context.Context, participant uuid.UUID, score int64, ttl time.Duration) error
	Invalidate(ctx context.Context, participant uuid.UUID) error
}

// AuthService defines registration and login.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.Participant, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// AccountService manages native-value account funding and balance reads.
type AccountService interface {
	Deposit(ctx context.Context, owner uuid.UUID, amount int64) (*domain.Account, error)
	GetBalance(ctx context.Context, owner uuid.UUID) (*domain.Account, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(participantID uuid.UUID, role domain.ParticipantRole) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	ParticipantID uuid.UUID
	Role          domain.ParticipantRole
}
