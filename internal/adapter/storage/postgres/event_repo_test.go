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

func TestEventRepo_Append_AssignsSequence(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)
	actor := uuid.New()
	at := time.Now().UTC().Truncate(time.Microsecond)
	event := domain.NewEvent(domain.EventLoanFunded, actor, at).
		WithLoan(3).
		WithPayload(map[string]int64{"principal": 1000})

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO events").
		WithArgs(event.Type, event.Actor, event.OfferID, event.LoanID,
			event.ProofHash, event.Payload, event.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"sequence"}).AddRow(int64(42)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Append(context.Background(), tx, event)
	require.NoError(t, err)
	assert.Equal(t, int64(42), event.Sequence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_ListByLoan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)
	actor := uuid.New()
	loanID := int64(3)
	at := time.Now().UTC().Truncate(time.Microsecond)

	rows := pgxmock.NewRows([]string{"sequence", "type", "actor", "offer_id", "loan_id", "proof_hash", "payload", "created_at"}).
		AddRow(int64(1), domain.EventLoanApproved, actor, (*int64)(nil), &loanID, (*domain.ProofHash)(nil), []byte(`null`), at).
		AddRow(int64(2), domain.EventLoanFunded, actor, (*int64)(nil), &loanID, (*domain.ProofHash)(nil), []byte(`null`), at)

	mock.ExpectQuery("SELECT .+ FROM events WHERE loan_id").
		WithArgs(loanID).
		WillReturnRows(rows)

	events, err := repo.ListByLoan(context.Background(), loanID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventLoanApproved, events[0].Type)
	assert.Equal(t, int64(2), events[1].Sequence)
	assert.NoError(t, mock.ExpectationsWereMet())
}
