package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// DefaultGracePeriod is the window past a due date before a loan can be
// declared defaulted.
const DefaultGracePeriod = 7 * 24 * time.Hour

// DefaultRepaymentBonus and DefaultDefaultPenalty are the reputation deltas
// applied on full repayment and on liquidation.
const (
	DefaultRepaymentBonus = 50
	DefaultDefaultPenalty = 100
)

// paymentScheduleSplits divides a loan term into equal payment intervals.
const paymentScheduleSplits = 4

// LendingDeps bundles the collaborators of the settlement engine.
type LendingDeps struct {
	Offers        ports.OfferRepository
	Loans         ports.LoanRepository
	Verifications ports.VerificationRepository
	Accounts      ports.AccountRepository
	Events        ports.EventRepository
	Participants  ports.ParticipantRepository
	Reputation    ports.ReputationService
	Queue         ports.SubmissionQueue
	Transactor    ports.DBTransactor

	GracePeriod time.Duration // 0 = DefaultGracePeriod
	// RepaymentBonus and DefaultPenalty are pointers so an explicit zero is
	// distinguishable from unset: nil = default, *p used verbatim.
	RepaymentBonus *int64
	DefaultPenalty *int64

	Log zerolog.Logger
}

// LendingOption tweaks engine construction.
type LendingOption func(*LendingServiceImpl)

// WithClock substitutes the time source. The engine samples the clock once
// per operation and uses that instant consistently within it.
func WithClock(now func() time.Time) LendingOption {
	return func(s *LendingServiceImpl) { s.now = now }
}

// LendingServiceImpl implements ports.LendingService.
//
// One mutex serializes every mutating entry point end-to-end: offer
// deactivation, proof consumption and loan creation must be atomic as a
// unit, and per-entity locking cannot give that. The enclosing database
// transaction provides rollback, the mutex provides the serialized
// execution model.
type LendingServiceImpl struct {
	mu sync.Mutex

	offers        ports.OfferRepository
	loans         ports.LoanRepository
	verifications ports.VerificationRepository
	accounts      ports.AccountRepository
	events        ports.EventRepository
	participants  ports.ParticipantRepository
	reputation    ports.ReputationService
	queue         ports.SubmissionQueue
	transactor    ports.DBTransactor

	gracePeriod    time.Duration
	repaymentBonus int64
	defaultPenalty int64

	now func() time.Time
	log zerolog.Logger
}

// NewLendingService creates the settlement engine.
func NewLendingService(deps LendingDeps, opts ...LendingOption) *LendingServiceImpl {
	s := &LendingServiceImpl{
		offers:         deps.Offers,
		loans:          deps.Loans,
		verifications:  deps.Verifications,
		accounts:       deps.Accounts,
		events:         deps.Events,
		participants:   deps.Participants,
		reputation:     deps.Reputation,
		queue:          deps.Queue,
		transactor:     deps.Transactor,
		gracePeriod:    deps.GracePeriod,
		repaymentBonus: DefaultRepaymentBonus,
		defaultPenalty: DefaultDefaultPenalty,
		now:            func() time.Time { return time.Now().UTC() },
		log:            deps.Log,
	}
	if s.gracePeriod <= 0 {
		s.gracePeriod = DefaultGracePeriod
	}
	if deps.RepaymentBonus != nil {
		s.repaymentBonus = *deps.RepaymentBonus
	}
	if deps.DefaultPenalty != nil {
		s.defaultPenalty = *deps.DefaultPenalty
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOffer registers a lender's standing terms. The principal is debited
// from the lender's account into escrow at creation, so funding at
// origination can never bounce.
func (s *LendingServiceImpl) CreateOffer(ctx context.Context, req ports.CreateOfferRequest) (*domain.LoanOffer, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrAmountNotPositive()
	}
	if req.Duration <= 0 {
		return nil, apperror.ErrDurationNotPositive()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	offer := &domain.LoanOffer{
		Lender:          req.Lender,
		Amount:          req.Amount,
		InterestRate:    req.InterestRate,
		Duration:        req.Duration,
		CollateralRatio: req.CollateralRatio,
		MinScore:        req.MinScore,
		Active:          true,
		CreatedAt:       now,
	}
	if err := s.offers.Create(ctx, dbTx, offer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create offer: %w", err))
	}

	// Pre-fund the principal into escrow.
	if err := s.transfer(ctx, dbTx, req.Lender, domain.EscrowAccountID, req.Amount); err != nil {
		return nil, err
	}

	ev := domain.NewEvent(domain.EventOfferCreated, req.Lender, now).
		WithOffer(offer.ID).
		WithPayload(offer)
	if err := s.events.Append(ctx, dbTx, ev); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append event: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("offer_id", offer.ID).
		Str("lender", req.Lender.String()).
		Int64("amount", req.Amount).
		Msg("offer created")

	return offer, nil
}

// CancelOffer deactivates an unmatched offer and refunds the escrowed
// principal to the lender.
func (s *LendingServiceImpl) CancelOffer(ctx context.Context, lender uuid.UUID, offerID int64) (*domain.LoanOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	offer, err := s.offers.GetByIDForUpdate(ctx, dbTx, offerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock offer: %w", err))
	}
	if offer == nil {
		return nil, apperror.ErrNotFound("offer")
	}
	if offer.Lender != lender {
		return nil, apperror.ErrOnlyLender()
	}
	if !offer.Active {
		return nil, apperror.ErrOfferNotActive()
	}

	if err := s.offers.Deactivate(ctx, dbTx, offer.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("deactivate offer: %w", err))
	}
	if err := s.transfer(ctx, dbTx, domain.EscrowAccountID, lender, offer.Amount); err != nil {
		return nil, err
	}

	ev := domain.NewEvent(domain.EventOfferCancelled, lender, now).WithOffer(offer.ID)
	if err := s.events.Append(ctx, dbTx, ev); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append event: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	offer.Active = false
	s.log.Info().Int64("offer_id", offer.ID).Msg("offer cancelled")
	return offer, nil
}

// SubmitProof is a pure notification: it appends a ProofReceived event and
// hands the submission to the verification queue. No validation, no other
// state change.
func (s *LendingServiceImpl) SubmitProof(ctx context.Context, submitter uuid.UUID, sub domain.ProofSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	ev := domain.NewEvent(domain.EventProofReceived, submitter, now).WithProof(sub.ProofHash)
	if err := s.events.Append(ctx, dbTx, ev); err != nil {
		return apperror.InternalError(fmt.Errorf("append event: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Best-effort hand-off to the off-chain watcher.
	if s.queue != nil {
		sub.Submitter = submitter
		if err := s.queue.Enqueue(ctx, sub); err != nil {
			s.log.Warn().Err(err).
				Str("proof_hash", sub.ProofHash.String()).
				Msg("failed to enqueue proof submission")
		}
	}

	s.log.Info().
		Str("proof_hash", sub.ProofHash.String()).
		Str("submitter", submitter.String()).
		Msg("proof submitted")
	return nil
}

// RecordVerification is the sole write path into the verification cache.
// Restricted to administrators (the trusted reporter role). Overwrites the
// entry unconditionally, resetting the consumption marker; a valid result
// also forwards the score to the reputation store.
func (s *LendingServiceImpl) RecordVerification(ctx context.Context, reporter uuid.UUID, req ports.RecordVerificationRequest) error {
	caller, err := s.participants.GetByID(ctx, reporter)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("fetch reporter: %w", err))
	}
	if caller == nil || !caller.IsAdmin() {
		return apperror.ErrAdminOnly()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	existing, err := s.verifications.GetForUpdate(ctx, dbTx, req.ProofHash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock verification: %w", err))
	}
	if existing != nil && existing.Processed {
		// Overwrite of a consumed result re-arms the proof. Known replay
		// surface inherited from the reference lifecycle.
		s.log.Warn().
			Str("proof_hash", req.ProofHash.String()).
			Msg("re-reporting a consumed proof resets its consumption marker")
	}

	result := &domain.VerificationResult{
		ProofHash:  req.ProofHash,
		Borrower:   req.Borrower,
		IsValid:    req.IsValid,
		Score:      req.Score,
		Processed:  false,
		ReportedAt: now,
	}
	if err := s.verifications.Upsert(ctx, dbTx, result); err != nil {
		return apperror.InternalError(fmt.Errorf("upsert verification: %w", err))
	}

	if req.IsValid {
		if err := s.reputation.UpdateScore(ctx, dbTx, domain.EngineID, req.Borrower, req.Score); err != nil {
			return err
		}
	}

	ev := domain.NewEvent(domain.EventProofVerified, reporter, now).
		WithProof(req.ProofHash).
		WithPayload(map[string]interface{}{"is_valid": req.IsValid, "score": req.Score})
	if err := s.events.Append(ctx, dbTx, ev); err != nil {
		return apperror.InternalError(fmt.Errorf("append event: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("proof_hash", req.ProofHash.String()).
		Bool("is_valid", req.IsValid).
		Int64("score", req.Score).
		Msg("verification recorded")
	return nil
}

// RequestLoan originates a loan against an active offer and an unconsumed
// valid verification result. Preconditions are checked in a fixed order so
// rejection reasons are deterministic. On success the offer is deactivated,
// the proof consumed, the collateral escrowed and the principal paid out,
// all in one atomic unit.
func (s *LendingServiceImpl) RequestLoan(ctx context.Context, req ports.RequestLoanRequest) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	offer, err := s.offers.GetByIDForUpdate(ctx, dbTx, req.OfferID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock offer: %w", err))
	}
	// Check 1: offer exists and is active.
	if offer == nil || !offer.Active {
		return nil, apperror.ErrOfferNotActive()
	}

	result, err := s.verifications.GetForUpdate(ctx, dbTx, req.ProofHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock verification: %w", err))
	}
	// Check 2: proof verified and valid.
	if result == nil || !result.IsValid {
		return nil, apperror.ErrProofNotVerified()
	}
	// Check 3: proof not yet consumed.
	if result.Processed {
		return nil, apperror.ErrProofAlreadyUsed()
	}
	// Check 4: attached collateral covers the required ratio.
	if req.Collateral < offer.RequiredCollateral() {
		return nil, apperror.ErrInsufficientCollateral()
	}
	// Check 5: attested score meets the offer's bar.
	if result.Score < offer.MinScore {
		return nil, apperror.ErrReputationTooLow()
	}

	ev := domain.NewEvent(domain.EventLoanRequested, req.Borrower, now).
		WithOffer(offer.ID).
		WithProof(req.ProofHash)
	if err := s.events.Append(ctx, dbTx, ev); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append event: %w", err))
	}

	if err := s.verifications.MarkProcessed(ctx, dbTx, req.ProofHash); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark proof processed: %w", err))
	}

	interval := offer.Duration / paymentScheduleSplits
	loan := &domain.Loan{
		OfferID:          offer.ID,
		Borrower:         req.Borrower,
		Lender:           offer.Lender,
		Amount:           offer.Amount,
		InterestRate:     offer.InterestRate,
		Duration:         offer.Duration,
		StartTime:        now,
		EndTime:          now.Add(time.Duration(offer.Duration) * time.Second),
		CollateralAmount: req.Collateral, // Full attached value, excess retained
		Status:           domain.LoanStatusActive,
		ScoreSnapshot:    result.Score,
		AmountRepaid:     0,
		NextPaymentDue:   now.Add(time.Duration(interval) * time.Second),
		PaymentInterval:  interval,
	}
	if err := s.loans.Create(ctx, dbTx, loan); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create loan: %w", err))
	}

	approved := domain.NewEvent(domain.EventLoanApproved, req.Borrower, now).
		WithOffer(offer.ID).
		WithLoan(loan.ID)
	if err := s.events.Append(ctx, dbTx, approved); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append event: %w", err))
	}

	// Escrow the collateral, then release the pre-funded principal.
	if err := s.transfer(ctx, dbTx, req.Borrower, domain.EscrowAccountID, req.Collateral); err != nil {
		return nil, err
	}
	if err := s.transfer(ctx, dbTx, domain.EscrowAccountID, req.Borrower, offer.Amount); err != nil {
		return nil, err
	}

	funded := domain.NewEvent(domain.EventLoanFunded, req.Borrower, now).
		WithLoan(loan.ID).
		WithPayload(map[string]int64{"principal": offer.Amount, "collateral": req.Collateral})
	if err := s.events.Append(ctx, dbTx, funded); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append event: %w", err))
	}

	if err := s.offers.Deactivate(ctx, dbTx, offer.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("deactivate offer: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("loan_id", loan.ID).
		Int64("offer_id", offer.ID).
		Str("borrower", req.Borrower.String()).
		Int64("collateral", req.Collateral).
		Msg("loan originated")

	return loan, nil
}

// MakePayment applies an attached payment to an active loan. A payment
// covering the remainder settles the loan: the remainder goes to the
// lender, any excess and the full collateral return to the borrower, and
// the borrower's reputation is bumped. A partial payment accrues and, if on
// time, advances the schedule by one interval; a late partial payment does
// not advance it.
func (s *LendingServiceImpl) MakePayment(ctx context.Context, req ports.MakePaymentRequest) (*domain.Loan, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrPaymentNotPositive()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	loan, err := s.loans.GetByIDForUpdate(ctx, dbTx, req.LoanID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock loan: %w", err))
	}
	if loan == nil {
		return nil, apperror.ErrNotFound("loan")
	}
	if loan.Borrower != req.Borrower {
		return nil, apperror.ErrOnlyBorrower()
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, apperror.ErrLoanNotActive()
	}

	remaining := loan.Remaining()

	// Attach the payment: borrower -> escrow.
	if err := s.transfer(ctx, dbTx, req.Borrower, domain.EscrowAccountID, req.Amount); err != nil {
		return nil, err
	}

	if req.Amount >= remaining {
		if err := s.settleFullRepayment(ctx, dbTx, loan, req.Amount, remaining, now); err != nil {
			return nil, err
		}
	} else {
		s.applyPartialPayment(loan, req.Amount, now)
		if err := s.transfer(ctx, dbTx, domain.EscrowAccountID, loan.Lender, req.Amount); err != nil {
			return nil, apperror.ErrPayLenderFailed(err)
		}
		ev := domain.NewEvent(domain.EventPaymentMade, loan.Borrower, now).
			WithLoan(loan.ID).
			WithPayload(map[string]int64{"amount": req.Amount, "remaining": loan.Remaining()})
		if err := s.events.Append(ctx, dbTx, ev); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append event: %w", err))
		}
	}

	if err := s.loans.Update(ctx, dbTx, loan); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update loan: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("loan_id", loan.ID).
		Int64("amount", req.Amount).
		Str("status", string(loan.Status)).
		Msg("payment processed")

	return loan, nil
}

// settleFullRepayment runs the four value movements of a settling payment.
// All happen inside the caller's transaction; any failure aborts the whole
// operation with a distinct transfer error.
func (s *LendingServiceImpl) settleFullRepayment(ctx context.Context, dbTx pgx.Tx, loan *domain.Loan, attached, remaining int64, now time.Time) error {
	loan.AmountRepaid = loan.TotalDue()
	loan.Status = domain.LoanStatusRepaid

	if excess := attached - remaining; excess > 0 {
		if err := s.transfer(ctx, dbTx, domain.EscrowAccountID, loan.Borrower, excess); err != nil {
			return apperror.ErrReturnExcessFailed(err)
		}
	}
	if err := s.transfer(ctx, dbTx, domain.EscrowAccountID, loan.Lender, remaining); err != nil {
		return apperror.ErrPayLenderFailed(err)
	}
	if loan.CollateralAmount > 0 {
		if err := s.transfer(ctx, dbTx, domain.EscrowAccountID, loan.Borrower, loan.CollateralAmount); err != nil {
			return apperror.ErrReturnCollateralFailed(err)
		}
	}

	// The stored score, read under the settlement transaction. The cached
	// read path is off-limits here.
	score, err := s.reputation.GetScoreForUpdate(ctx, dbTx, loan.Borrower)
	if err != nil {
		return err
	}
	if err := s.reputation.UpdateScore(ctx, dbTx, domain.EngineID, loan.Borrower, score+s.repaymentBonus); err != nil {
		return err
	}

	repaid := domain.NewEvent(domain.EventLoanRepaid, loan.Borrower, now).
		WithLoan(loan.ID).
		WithPayload(map[string]int64{"total_due": loan.TotalDue()})
	if err := s.events.Append(ctx, dbTx, repaid); err != nil {
		return apperror.InternalError(fmt.Errorf("append event: %w", err))
	}
	return nil
}

// applyPartialPayment accrues a non-settling payment. An on-time payment
// advances the due date by one interval; a late one leaves the schedule
// untouched so the borrower stays behind.
func (s *LendingServiceImpl) applyPartialPayment(loan *domain.Loan, amount int64, now time.Time) {
	loan.AmountRepaid += amount
	if !now.After(loan.NextPaymentDue) {
		loan.NextPaymentDue = loan.NextPaymentDue.Add(time.Duration(loan.PaymentInterval) * time.Second)
	}
}

// CheckDefault declares a loan defaulted once the grace window past its due
// date has elapsed: collateral is liquidated to the lender and the
// borrower's reputation is penalized, floored at zero. Before the window
// elapses the call is a silent no-op. Callable by anyone; calling on a
// terminal loan is an error, not a no-op.
func (s *LendingServiceImpl) CheckDefault(ctx context.Context, caller uuid.UUID, loanID int64) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	loan, err := s.loans.GetByIDForUpdate(ctx, dbTx, loanID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock loan: %w", err))
	}
	if loan == nil {
		return nil, apperror.ErrNotFound("loan")
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, apperror.ErrLoanNotActive()
	}

	deadline := loan.NextPaymentDue.Add(s.gracePeriod)
	if !now.After(deadline) {
		// Grace window still open: no state change, no events.
		return loan, nil
	}

	loan.Status = domain.LoanStatusDefaulted
	if err := s.loans.Update(ctx, dbTx, loan); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update loan: %w", err))
	}

	defaulted := domain.NewEvent(domain.EventLoanDefaulted, caller, now).WithLoan(loan.ID)
	if err := s.events.Append(ctx, dbTx, defaulted); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append event: %w", err))
	}

	if loan.CollateralAmount > 0 {
		if err := s.transfer(ctx, dbTx, domain.EscrowAccountID, loan.Lender, loan.CollateralAmount); err != nil {
			return nil, apperror.ErrLiquidationFailed(err)
		}
		liquidated := domain.NewEvent(domain.EventCollateralLiquidated, caller, now).
			WithLoan(loan.ID).
			WithPayload(map[string]int64{"collateral": loan.CollateralAmount})
		if err := s.events.Append(ctx, dbTx, liquidated); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append event: %w", err))
		}
	}

	score, err := s.reputation.GetScoreForUpdate(ctx, dbTx, loan.Borrower)
	if err != nil {
		return nil, err
	}
	newScore := score - s.defaultPenalty
	if newScore < 0 {
		newScore = 0
	}
	if err := s.reputation.UpdateScore(ctx, dbTx, domain.EngineID, loan.Borrower, newScore); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("loan_id", loan.ID).
		Str("borrower", loan.Borrower.String()).
		Int64("collateral", loan.CollateralAmount).
		Msg("loan defaulted, collateral liquidated")

	return loan, nil
}

// --- Read-only queries ---

func (s *LendingServiceImpl) GetOffer(ctx context.Context, offerID int64) (*domain.LoanOffer, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get offer: %w", err))
	}
	if offer == nil {
		return nil, apperror.ErrNotFound("offer")
	}
	return offer, nil
}

func (s *LendingServiceImpl) GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get loan: %w", err))
	}
	if loan == nil {
		return nil, apperror.ErrNotFound("loan")
	}
	return loan, nil
}

func (s *LendingServiceImpl) ListBorrowerLoans(ctx context.Context, borrower uuid.UUID) ([]domain.Loan, error) {
	loans, err := s.loans.ListByBorrower(ctx, borrower)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list borrower loans: %w", err))
	}
	return loans, nil
}

func (s *LendingServiceImpl) ListLenderLoans(ctx context.Context, lender uuid.UUID) ([]domain.Loan, error) {
	loans, err := s.loans.ListByLender(ctx, lender)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list lender loans: %w", err))
	}
	return loans, nil
}

func (s *LendingServiceImpl) ListLenderOffers(ctx context.Context, lender uuid.UUID) ([]domain.LoanOffer, error) {
	offers, err := s.offers.ListByLender(ctx, lender)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list lender offers: %w", err))
	}
	return offers, nil
}

func (s *LendingServiceImpl) ListLoanEvents(ctx context.Context, loanID int64) ([]domain.Event, error) {
	events, err := s.events.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list loan events: %w", err))
	}
	return events, nil
}

// transfer moves value between ledger accounts inside the open transaction.
// A debit past zero or a missing account fails the transfer, which in turn
// aborts the enclosing operation.
func (s *LendingServiceImpl) transfer(ctx context.Context, dbTx pgx.Tx, from, to uuid.UUID, amount int64) error {
	if amount == 0 {
		return nil
	}
	if err := s.accounts.Debit(ctx, dbTx, from, amount); err != nil {
		return apperror.ErrInsufficientFunds(err)
	}
	if err := s.accounts.Credit(ctx, dbTx, to, amount); err != nil {
		return apperror.InternalError(fmt.Errorf("credit %s: %w", to, err))
	}
	return nil
}
