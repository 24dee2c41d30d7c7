package service

import (
	"context"
	"fmt"
	"time"

	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	participants ports.ParticipantRepository
	accounts     ports.AccountRepository
	hasher       ports.HashService
	tokens       ports.TokenService
	now          func() time.Time
	log          zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	participants ports.ParticipantRepository,
	accounts ports.AccountRepository,
	hasher ports.HashService,
	tokens ports.TokenService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		participants: participants,
		accounts:     accounts,
		hasher:       hasher,
		tokens:       tokens,
		now:          func() time.Time { return time.Now().UTC() },
		log:          log,
	}
}

// Register creates a member participant together with an empty ledger
// account.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (*domain.Participant, error) {
	existing, err := s.participants.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := s.now()
	p := &domain.Participant{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleMember,
		CreatedAt:    now,
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create participant: %w", err))
	}

	account := &domain.Account{Owner: p.ID, Balance: 0, CreatedAt: now, UpdatedAt: now}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().Str("participant_id", p.ID.String()).Msg("participant registered")
	return p, nil
}

// Login verifies the credentials and issues a signed token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	p, err := s.participants.GetByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("lookup username: %w", err))
	}
	if p == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hasher.Verify(password, p.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokens.Generate(p.ID, p.Role)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.log.Info().Str("participant_id", p.ID.String()).Msg("participant logged in")
	return token, expiresAt, nil
}
