package postgres

import (
	"context"
	"testing"
	"time"

	"zk-lending-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoan() *domain.Loan {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Loan{
		ID:               1,
		OfferID:          1,
		Borrower:         uuid.New(),
		Lender:           uuid.New(),
		Amount:           1000,
		InterestRate:     500,
		Duration:         3600,
		StartTime:        now,
		EndTime:          now.Add(time.Hour),
		CollateralAmount: 1500,
		Status:           domain.LoanStatusActive,
		ScoreSnapshot:    700,
		AmountRepaid:     0,
		NextPaymentDue:   now.Add(15 * time.Minute),
		PaymentInterval:  900,
	}
}

func loanColumnNames() []string {
	return []string{"id", "offer_id", "borrower", "lender", "amount", "interest_rate", "duration",
		"start_time", "end_time", "collateral_amount", "status", "score_snapshot",
		"amount_repaid", "next_payment_due", "payment_interval"}
}

func loanRow(l *domain.Loan) *pgxmock.Rows {
	return pgxmock.NewRows(loanColumnNames()).AddRow(
		l.ID, l.OfferID, l.Borrower, l.Lender, l.Amount, l.InterestRate, l.Duration,
		l.StartTime, l.EndTime, l.CollateralAmount, l.Status, l.ScoreSnapshot,
		l.AmountRepaid, l.NextPaymentDue, l.PaymentInterval,
	)
}

func TestLoanRepo_Create_AssignsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan()
	l.ID = 0

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO loans").
		WithArgs(l.OfferID, l.Borrower, l.Lender, l.Amount, l.InterestRate,
			l.Duration, l.StartTime, l.EndTime, l.CollateralAmount,
			l.Status, l.ScoreSnapshot, l.AmountRepaid, l.NextPaymentDue, l.PaymentInterval).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, l)
	require.NoError(t, err)
	assert.Equal(t, int64(7), l.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan()

	mock.ExpectQuery("SELECT .+ FROM loans WHERE id").
		WithArgs(l.ID).
		WillReturnRows(loanRow(l))

	result, err := repo.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, l.Borrower, result.Borrower)
	assert.Equal(t, domain.LoanStatusActive, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM loans WHERE id").
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows(loanColumnNames()))

	result, err := repo.GetByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestLoanRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan()
	l.Status = domain.LoanStatusRepaid
	l.AmountRepaid = 1050

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE loans SET").
		WithArgs(l.Status, l.AmountRepaid, l.NextPaymentDue, l.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Update(context.Background(), tx, l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_ListByBorrower_InsertionOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	first := newTestLoan()
	second := newTestLoan()
	second.ID = 2
	second.OfferID = 2
	second.Borrower = first.Borrower

	rows := loanRow(first).AddRow(
		second.ID, second.OfferID, second.Borrower, second.Lender, second.Amount,
		second.InterestRate, second.Duration, second.StartTime, second.EndTime,
		second.CollateralAmount, second.Status, second.ScoreSnapshot,
		second.AmountRepaid, second.NextPaymentDue, second.PaymentInterval,
	)

	mock.ExpectQuery("SELECT .+ FROM loans WHERE borrower = \\$1 ORDER BY id").
		WithArgs(first.Borrower).
		WillReturnRows(rows)

	loans, err := repo.ListByBorrower(context.Background(), first.Borrower)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, first.ID, loans[0].ID)
	assert.Equal(t, second.ID, loans[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_ListByLender_InsertionOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	first := newTestLoan()
	second := newTestLoan()
	second.ID = 5
	second.Lender = first.Lender

	rows := loanRow(first).AddRow(
		second.ID, second.OfferID, second.Borrower, second.Lender, second.Amount,
		second.InterestRate, second.Duration, second.StartTime, second.EndTime,
		second.CollateralAmount, second.Status, second.ScoreSnapshot,
		second.AmountRepaid, second.NextPaymentDue, second.PaymentInterval,
	)

	mock.ExpectQuery("SELECT .+ FROM loans WHERE lender = \\$1 ORDER BY id").
		WithArgs(first.Lender).
		WillReturnRows(rows)

	loans, err := repo.ListByLender(context.Background(), first.Lender)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, first.ID, loans[0].ID)
	assert.Equal(t, second.ID, loans[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
