package postgres

import (
	"context"
	"errors"
	"fmt"

	"zk-lending-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LoanRepo implements ports.LoanRepository.
type LoanRepo struct {
	pool Pool
}

// NewLoanRepo creates a new LoanRepo.
func NewLoanRepo(pool Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

const loanColumns = `id, offer_id, borrower, lender, amount, interest_rate, duration, start_time, end_time,
		collateral_amount, status, score_snapshot, amount_repaid, next_payment_due, payment_interval`

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	loan := &domain.Loan{}
	err := row.Scan(
		&loan.ID, &loan.OfferID, &loan.Borrower, &loan.Lender, &loan.Amount,
		&loan.InterestRate, &loan.Duration, &loan.StartTime, &loan.EndTime,
		&loan.CollateralAmount, &loan.Status, &loan.ScoreSnapshot,
		&loan.AmountRepaid, &loan.NextPaymentDue, &loan.PaymentInterval,
	)
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// Create inserts the loan and assigns its sequence-backed ID.
func (r *LoanRepo) Create(ctx context.Context, tx pgx.Tx, loan *domain.Loan) error {
	query := `INSERT INTO loans (offer_id, borrower, lender, amount, interest_rate, duration, start_time, end_time,
			collateral_amount, status, score_snapshot, amount_repaid, next_payment_due, payment_interval)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`

	err := tx.QueryRow(ctx, query,
		loan.OfferID, loan.Borrower, loan.Lender, loan.Amount, loan.InterestRate,
		loan.Duration, loan.StartTime, loan.EndTime, loan.CollateralAmount,
		loan.Status, loan.ScoreSnapshot, loan.AmountRepaid, loan.NextPaymentDue, loan.PaymentInterval,
	).Scan(&loan.ID)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// GetByID fetches a loan by ID (without locking).
func (r *LoanRepo) GetByID(ctx context.Context, id int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	loan, err := scanLoan(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan by id: %w", err)
	}
	return loan, nil
}

// GetByIDForUpdate fetches a loan with pessimistic locking.
// This MUST be called within a transaction.
func (r *LoanRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`

	loan, err := scanLoan(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan for update: %w", err)
	}
	return loan, nil
}

// Update persists repayment progress and status transitions.
func (r *LoanRepo) Update(ctx context.Context, tx pgx.Tx, loan *domain.Loan) error {
	query := `UPDATE loans SET status = $1, amount_repaid = $2, next_payment_due = $3 WHERE id = $4`

	tag, err := tx.Exec(ctx, query, loan.Status, loan.AmountRepaid, loan.NextPaymentDue, loan.ID)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update loan: no loan with id %d", loan.ID)
	}
	return nil
}

// ListByBorrower returns the borrower's loans in origination order.
func (r *LoanRepo) ListByBorrower(ctx context.Context, borrower uuid.UUID) ([]domain.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans WHERE borrower = $1 ORDER BY id`, borrower)
}

// ListByLender returns the lender's loans in origination order.
func (r *LoanRepo) ListByLender(ctx context.Context, lender uuid.UUID) ([]domain.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans WHERE lender = $1 ORDER BY id`, lender)
}

func (r *LoanRepo) list(ctx context.Context, query string, participant uuid.UUID) ([]domain.Loan, error) {
	rows, err := r.pool.Query(ctx, query, participant)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}
	return loans, nil
}
