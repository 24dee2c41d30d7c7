package service

import (
	"context"
	"fmt"

	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountServiceImpl implements ports.AccountService over the native-value
// ledger.
type AccountServiceImpl struct {
	accounts   ports.AccountRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(accounts ports.AccountRepository, transactor ports.DBTransactor, log zerolog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{accounts: accounts, transactor: transactor, log: log}
}

// Deposit credits the owner's account and returns the updated balance.
func (s *AccountServiceImpl) Deposit(ctx context.Context, owner uuid.UUID, amount int64) (*domain.Account, error) {
	if amount <= 0 {
		return nil, apperror.ErrAmountNotPositive()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	account, err := s.accounts.GetByOwnerForUpdate(ctx, tx, owner)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}

	if err := s.accounts.Credit(ctx, tx, owner, amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit account: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	account.Balance += amount
	s.log.Info().
		Str("owner", owner.String()).
		Int64("amount", amount).
		Int64("balance", account.Balance).
		Msg("deposit credited")
	return account, nil
}

// GetBalance returns the owner's account.
func (s *AccountServiceImpl) GetBalance(ctx context.Context, owner uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByOwner(ctx, owner)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}
	return account, nil
}
