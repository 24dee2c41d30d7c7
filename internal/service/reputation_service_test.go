package service

import (
	"context"
	"errors"
	"testing"

	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reputationFixture struct {
	repo         *mocks.MockReputationRepository
	events       *mocks.MockEventRepository
	participants *mocks.MockParticipantRepository
	cache        *mocks.MockScoreCache
	transactor   *mocks.MockDBTransactor
	svc          *ReputationServiceImpl
}

func newReputationFixture(t *testing.T) *reputationFixture {
	ctrl := gomock.NewController(t)
	f := &reputationFixture{
		repo:         mocks.NewMockReputationRepository(ctrl),
		events:       mocks.NewMockEventRepository(ctrl),
		participants: mocks.NewMockParticipantRepository(ctrl),
		cache:        mocks.NewMockScoreCache(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
	}
	f.svc = NewReputationService(f.repo, f.events, f.participants, f.cache, f.transactor, zerolog.Nop())
	return f
}

func TestReputation_UpdateScore_UnauthorizedCaller(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	caller := uuid.New()

	f.repo.EXPECT().IsAuthorized(ctx, caller).Return(false, nil)

	err := f.svc.UpdateScore(ctx, nil, caller, uuid.New(), 700)
	assert.Equal(t, "caller not authorized", appMessage(t, err))
}

func TestReputation_UpdateScore_WithCallerTx(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	tx := &mockTx{}
	caller := domain.EngineID
	participant := uuid.New()

	f.repo.EXPECT().IsAuthorized(ctx, caller).Return(true, nil)
	f.repo.EXPECT().SetScore(ctx, tx, participant, int64(700)).Return(nil)
	f.events.EXPECT().Append(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ interface{}, ev *domain.Event) error {
			assert.Equal(t, domain.EventReputationUpdated, ev.Type)
			return nil
		})
	f.cache.EXPECT().Invalidate(ctx, participant).Return(nil)

	// A caller-supplied transaction must not be committed here.
	err := f.svc.UpdateScore(ctx, tx, caller, participant, 700)
	assert.NoError(t, err)
}

func TestReputation_UpdateScore_OwnTx(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	tx := &mockTx{}
	caller := uuid.New()
	participant := uuid.New()

	f.repo.EXPECT().IsAuthorized(ctx, caller).Return(true, nil)
	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.repo.EXPECT().SetScore(ctx, tx, participant, int64(640)).Return(nil)
	f.events.EXPECT().Append(ctx, tx, gomock.Any()).Return(nil)
	f.cache.EXPECT().Invalidate(ctx, participant).Return(nil)

	err := f.svc.UpdateScore(ctx, nil, caller, participant, 640)
	assert.NoError(t, err)
}

func TestReputation_InitializeScore_SkipsExisting(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	tx := &mockTx{}
	caller := domain.EngineID
	participant := uuid.New()

	f.repo.EXPECT().IsAuthorized(ctx, caller).Return(true, nil)
	f.repo.EXPECT().GetScore(ctx, participant).Return(int64(500), nil)
	// No SetScore expectation: an already-scored participant stays put.

	err := f.svc.InitializeScore(ctx, tx, caller, participant, 600)
	assert.NoError(t, err)
}

func TestReputation_InitializeScore_SetsUnseen(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	tx := &mockTx{}
	caller := domain.EngineID
	participant := uuid.New()

	f.repo.EXPECT().IsAuthorized(ctx, caller).Return(true, nil)
	f.repo.EXPECT().GetScore(ctx, participant).Return(int64(0), nil)
	f.repo.EXPECT().SetScore(ctx, tx, participant, int64(600)).Return(nil)
	f.events.EXPECT().Append(ctx, tx, gomock.Any()).Return(nil)
	f.cache.EXPECT().Invalidate(ctx, participant).Return(nil)

	err := f.svc.InitializeScore(ctx, tx, caller, participant, 600)
	assert.NoError(t, err)
}

func TestReputation_GetScore_CacheHit(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	participant := uuid.New()

	f.cache.EXPECT().Get(ctx, participant).Return(int64(720), true, nil)

	score, err := f.svc.GetScore(ctx, participant)
	require.NoError(t, err)
	assert.Equal(t, int64(720), score)
}

func TestReputation_GetScore_CacheMissFallsThrough(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	participant := uuid.New()

	f.cache.EXPECT().Get(ctx, participant).Return(int64(0), false, nil)
	f.repo.EXPECT().GetScore(ctx, participant).Return(int64(310), nil)
	f.cache.EXPECT().Set(ctx, participant, int64(310), scoreCacheTTL).Return(nil)

	score, err := f.svc.GetScore(ctx, participant)
	require.NoError(t, err)
	assert.Equal(t, int64(310), score)
}

func TestReputation_GetScore_CacheErrorIsNonFatal(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	participant := uuid.New()

	f.cache.EXPECT().Get(ctx, participant).Return(int64(0), false, errors.New("redis down"))
	f.repo.EXPECT().GetScore(ctx, participant).Return(int64(40), nil)
	f.cache.EXPECT().Set(ctx, participant, int64(40), scoreCacheTTL).Return(errors.New("redis down"))

	score, err := f.svc.GetScore(ctx, participant)
	require.NoError(t, err)
	assert.Equal(t, int64(40), score)
}

func TestReputation_GetScoreForUpdate_BypassesCache(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	tx := &mockTx{}
	participant := uuid.New()

	// No cache expectations: a warm cache entry must never be consulted on
	// this path.
	f.repo.EXPECT().GetScoreForUpdate(ctx, tx, participant).Return(int64(700), nil)

	score, err := f.svc.GetScoreForUpdate(ctx, tx, participant)
	require.NoError(t, err)
	assert.Equal(t, int64(700), score)
}

func TestReputation_AuthorizeCaller_AdminGate(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	admin := uuid.New()
	caller := uuid.New()

	f.participants.EXPECT().GetByID(ctx, admin).Return(&domain.Participant{
		ID: admin, Role: domain.RoleMember,
	}, nil)

	err := f.svc.AuthorizeCaller(ctx, admin, caller)
	assert.Equal(t, "administrator role required", appMessage(t, err))

	f.participants.EXPECT().GetByID(ctx, admin).Return(&domain.Participant{
		ID: admin, Role: domain.RoleAdmin,
	}, nil)
	f.repo.EXPECT().Authorize(ctx, caller).Return(nil)

	assert.NoError(t, f.svc.AuthorizeCaller(ctx, admin, caller))
}

func TestReputation_DeauthorizeCaller(t *testing.T) {
	f := newReputationFixture(t)
	ctx := context.Background()
	admin := uuid.New()
	caller := uuid.New()

	f.participants.EXPECT().GetByID(ctx, admin).Return(&domain.Participant{
		ID: admin, Role: domain.RoleAdmin,
	}, nil)
	f.repo.EXPECT().Deauthorize(ctx, caller).Return(nil)

	assert.NoError(t, f.svc.DeauthorizeCaller(ctx, admin, caller))
}
