package postgres

import (
	"context"
	"errors"
	"fmt"

	"zk-lending-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository. Balances only move inside
// transactions; Debit enforces the non-negative invariant in SQL so a
// concurrent writer cannot slip a balance below zero.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO accounts (owner, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, account.Owner, account.Balance, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByOwner fetches an account by owner (without locking).
func (r *AccountRepo) GetByOwner(ctx context.Context, owner uuid.UUID) (*domain.Account, error) {
	query := `SELECT owner, balance, created_at, updated_at FROM accounts WHERE owner = $1`

	account := &domain.Account{}
	err := r.pool.QueryRow(ctx, query, owner).Scan(
		&account.Owner, &account.Balance, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// GetByOwnerForUpdate fetches an account with pessimistic locking.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, owner uuid.UUID) (*domain.Account, error) {
	query := `SELECT owner, balance, created_at, updated_at FROM accounts WHERE owner = $1 FOR UPDATE`

	account := &domain.Account{}
	err := tx.QueryRow(ctx, query, owner).Scan(
		&account.Owner, &account.Balance, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account for update: %w", err)
	}
	return account, nil
}

// Credit adds to the balance within a transaction.
func (r *AccountRepo) Credit(ctx context.Context, tx pgx.Tx, owner uuid.UUID, amount int64) error {
	query := `UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE owner = $2`

	tag, err := tx.Exec(ctx, query, amount, owner)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("credit account: no account for owner %s", owner)
	}
	return nil
}

// Debit subtracts from the balance within a transaction. Fails without
// touching the row when the balance would go negative.
func (r *AccountRepo) Debit(ctx context.Context, tx pgx.Tx, owner uuid.UUID, amount int64) error {
	query := `UPDATE accounts SET balance = balance - $1, updated_at = NOW()
		WHERE owner = $2 AND balance >= $1`

	tag, err := tx.Exec(ctx, query, amount, owner)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("debit account: insufficient balance or no account for owner %s", owner)
	}
	return nil
}
