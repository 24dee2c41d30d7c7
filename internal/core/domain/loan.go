package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus represents the lifecycle state of a loan.
type LoanStatus string

const (
	// LoanStatusPending and LoanStatusRejected are declared for data-model
	// completeness; the implemented lifecycle never persists them.
	LoanStatusPending  LoanStatus = "PENDING"
	LoanStatusRejected LoanStatus = "REJECTED"

	// LoanStatusApproved is a transient intra-call marker. Origination
	// persists Active directly; Approved is never observable across calls.
	LoanStatusApproved LoanStatus = "APPROVED"

	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusRepaid    LoanStatus = "REPAID"
	LoanStatusDefaulted LoanStatus = "DEFAULTED"
)

// Loan represents an originated loan. Repaid and Defaulted are terminal;
// no field mutates after either.
type Loan struct {
	ID               int64      `json:"id"`
	OfferID          int64      `json:"offer_id"`
	Borrower         uuid.UUID  `json:"borrower"`
	Lender           uuid.UUID  `json:"lender"`
	Amount           int64      `json:"amount"`
	InterestRate     int64      `json:"interest_rate"` // Basis points
	Duration         int64      `json:"duration"`      // Seconds
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	CollateralAmount int64      `json:"collateral_amount"` // Exact deposit, may exceed required minimum
	Status           LoanStatus `json:"status"`
	ScoreSnapshot    int64      `json:"score_snapshot"` // Reputation frozen at origination
	AmountRepaid     int64      `json:"amount_repaid"`
	NextPaymentDue   time.Time  `json:"next_payment_due"`
	PaymentInterval  int64      `json:"payment_interval"` // Seconds, duration/4 floored
}

// IsTerminal returns true if the loan is in a final state.
func (l *Loan) IsTerminal() bool {
	return l.Status == LoanStatusRepaid || l.Status == LoanStatusDefaulted
}

// TotalDue returns principal plus flat interest, floored per basis-point
// arithmetic.
func (l *Loan) TotalDue() int64 {
	return l.Amount + l.Amount*l.InterestRate/BasisPointDivisor
}

// Remaining returns the outstanding amount while the loan is active.
func (l *Loan) Remaining() int64 {
	return l.TotalDue() - l.AmountRepaid
}
