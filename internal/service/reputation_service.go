package service

import (
	"context"
	"fmt"
	"time"

	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const scoreCacheTTL = 5 * time.Minute

// ReputationServiceImpl implements ports.ReputationService: an
// authorized-writer-gated score store with a read-through cache.
type ReputationServiceImpl struct {
	repo         ports.ReputationRepository
	events       ports.EventRepository
	participants ports.ParticipantRepository
	cache        ports.ScoreCache
	transactor   ports.DBTransactor
	now          func() time.Time
	log          zerolog.Logger
}

// NewReputationService creates a new ReputationServiceImpl.
func NewReputationService(
	repo ports.ReputationRepository,
	events ports.EventRepository,
	participants ports.ParticipantRepository,
	cache ports.ScoreCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *ReputationServiceImpl {
	return &ReputationServiceImpl{
		repo:         repo,
		events:       events,
		participants: participants,
		cache:        cache,
		transactor:   transactor,
		now:          func() time.Time { return time.Now().UTC() },
		log:          log,
	}
}

// UpdateScore overwrites the participant's score. Only allow-listed callers
// may write; everything else is rejected with an authorization error.
func (s *ReputationServiceImpl) UpdateScore(ctx context.Context, tx pgx.Tx, caller, participant uuid.UUID, score int64) error {
	return s.write(ctx, tx, caller, participant, score, false)
}

// InitializeScore sets the score only when the current value is the zero
// sentinel; an already-scored participant is left untouched.
func (s *ReputationServiceImpl) InitializeScore(ctx context.Context, tx pgx.Tx, caller, participant uuid.UUID, score int64) error {
	return s.write(ctx, tx, caller, participant, score, true)
}

func (s *ReputationServiceImpl) write(ctx context.Context, tx pgx.Tx, caller, participant uuid.UUID, score int64, onlyIfZero bool) error {
	authorized, err := s.repo.IsAuthorized(ctx, caller)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check allow-list: %w", err))
	}
	if !authorized {
		return apperror.ErrCallerNotAuthorized()
	}

	ownTx := tx == nil
	if ownTx {
		tx, err = s.transactor.Begin(ctx)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
		}
		defer tx.Rollback(ctx) //nolint:errcheck
	}

	if onlyIfZero {
		current, err := s.repo.GetScore(ctx, participant)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("read score: %w", err))
		}
		if current != 0 {
			return nil
		}
	}

	if err := s.repo.SetScore(ctx, tx, participant, score); err != nil {
		return apperror.InternalError(fmt.Errorf("set score: %w", err))
	}

	ev := domain.NewEvent(domain.EventReputationUpdated, caller, s.now()).
		WithPayload(map[string]interface{}{"participant": participant, "score": score})
	if err := s.events.Append(ctx, tx, ev); err != nil {
		return apperror.InternalError(fmt.Errorf("append event: %w", err))
	}

	if ownTx {
		if err := tx.Commit(ctx); err != nil {
			return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
		}
	}

	// Stale reads are bounded by the TTL; invalidation is best-effort.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, participant); err != nil {
			s.log.Warn().Err(err).Str("participant", participant.String()).Msg("score cache invalidation failed")
		}
	}

	s.log.Info().
		Str("participant", participant.String()).
		Int64("score", score).
		Msg("reputation score written")
	return nil
}

// GetScore returns the participant's score, 0 when unseen. Served from the
// cache when warm.
func (s *ReputationServiceImpl) GetScore(ctx context.Context, participant uuid.UUID) (int64, error) {
	if s.cache != nil {
		score, ok, err := s.cache.Get(ctx, participant)
		if err != nil {
			s.log.Warn().Err(err).Msg("score cache read failed, falling through")
		} else if ok {
			return score, nil
		}
	}

	score, err := s.repo.GetScore(ctx, participant)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("read score: %w", err))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, participant, score, scoreCacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("score cache write failed")
		}
	}
	return score, nil
}

// GetScoreForUpdate reads the stored score inside the caller's transaction,
// never the cache. The lending engine derives settlement deltas from this
// value; the cache is volatile and its invalidation best-effort, so a cached
// read here could fold a stale score into the persistent store.
func (s *ReputationServiceImpl) GetScoreForUpdate(ctx context.Context, tx pgx.Tx, participant uuid.UUID) (int64, error) {
	score, err := s.repo.GetScoreForUpdate(ctx, tx, participant)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("read score for update: %w", err))
	}
	return score, nil
}

// AuthorizeCaller adds a caller to the writer allow-list. Administrator only.
func (s *ReputationServiceImpl) AuthorizeCaller(ctx context.Context, admin uuid.UUID, caller uuid.UUID) error {
	if err := s.requireAdmin(ctx, admin); err != nil {
		return err
	}
	if err := s.repo.Authorize(ctx, caller); err != nil {
		return apperror.InternalError(fmt.Errorf("authorize caller: %w", err))
	}
	s.log.Info().Str("caller", caller.String()).Msg("reputation writer authorized")
	return nil
}

// DeauthorizeCaller removes a caller from the writer allow-list.
// Administrator only.
func (s *ReputationServiceImpl) DeauthorizeCaller(ctx context.Context, admin uuid.UUID, caller uuid.UUID) error {
	if err := s.requireAdmin(ctx, admin); err != nil {
		return err
	}
	if err := s.repo.Deauthorize(ctx, caller); err != nil {
		return apperror.InternalError(fmt.Errorf("deauthorize caller: %w", err))
	}
	s.log.Info().Str("caller", caller.String()).Msg("reputation writer deauthorized")
	return nil
}

func (s *ReputationServiceImpl) requireAdmin(ctx context.Context, id uuid.UUID) error {
	p, err := s.participants.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("fetch participant: %w", err))
	}
	if p == nil || !p.IsAdmin() {
		return apperror.ErrAdminOnly()
	}
	return nil
}
