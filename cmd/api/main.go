package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zk-lending-engine/config"
	httpHandler "zk-lending-engine/internal/adapter/http/handler"
	pgStorage "zk-lending-engine/internal/adapter/storage/postgres"
	redisStorage "zk-lending-engine/internal/adapter/storage/redis"
	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/internal/service"
	"zk-lending-engine/pkg/logger"

	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting ZK Lending Engine")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	offerRepo := pgStorage.NewOfferRepo(pool)
	loanRepo := pgStorage.NewLoanRepo(pool)
	verificationRepo := pgStorage.NewVerificationRepo(pool)
	accountRepo := pgStorage.NewAccountRepo(pool)
	reputationRepo := pgStorage.NewReputationRepo(pool)
	eventRepo := pgStorage.NewEventRepo(pool)
	participantRepo := pgStorage.NewParticipantRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	scoreCache := redisStorage.NewScoreCache(rdb)
	submissionQueue := redisStorage.NewSubmissionQueue(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	authSvc := service.NewAuthService(participantRepo, accountRepo, hashSvc, tokenSvc, log)
	accountSvc := service.NewAccountService(accountRepo, transactor, log)
	reputationSvc := service.NewReputationService(reputationRepo, eventRepo, participantRepo, scoreCache, transactor, log)
	lendingSvc := service.NewLendingService(service.LendingDeps{
		Offers:         offerRepo,
		Loans:          loanRepo,
		Verifications:  verificationRepo,
		Accounts:       accountRepo,
		Events:         eventRepo,
		Participants:   participantRepo,
		Reputation:     reputationSvc,
		Queue:          submissionQueue,
		Transactor:     transactor,
		GracePeriod:    cfg.Lending.GracePeriod,
		RepaymentBonus: &cfg.Lending.RepaymentBonus,
		DefaultPenalty: &cfg.Lending.DefaultPenalty,
		Log:            log,
	})

	// Seed the engine identity, the escrow account and the reputation
	// allow-list. Idempotent across restarts.
	if err := bootstrap(ctx, participantRepo, accountRepo, reputationRepo, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap engine state")
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Attestation worker: consumes the submission queue, asks the external
	// oracle and records results through the engine.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.Oracle.WorkerEnabled {
		oracle := service.NewAttestationClient(
			cfg.Oracle.BaseURL,
			cfg.Oracle.APIKey,
			&http.Client{Timeout: cfg.Oracle.Timeout},
			log,
		)
		worker := service.NewVerificationWorker(submissionQueue, oracle, lendingSvc, domain.EngineID, log)
		go worker.Run(workerCtx)
	} else {
		log.Info().Msg("attestation worker disabled; verification results must be reported via the API")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LendingSvc:     lendingSvc,
		AccountSvc:     accountSvc,
		ReputationSvc:  reputationSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// bootstrap seeds the engine's own identity: an administrator participant
// (the attestation worker reports through it), the escrow account holding
// offer principal and collateral, and the engine's slot on the reputation
// authorized-writer list.
func bootstrap(
	ctx context.Context,
	participants ports.ParticipantRepository,
	accounts ports.AccountRepository,
	reputation ports.ReputationRepository,
	log zerolog.Logger,
) error {
	engine, err := participants.GetByID(ctx, domain.EngineID)
	if err != nil {
		return fmt.Errorf("lookup engine participant: %w", err)
	}
	if engine == nil {
		if err := participants.Create(ctx, &domain.Participant{
			ID:        domain.EngineID,
			Username:  "lending-engine",
			Role:      domain.RoleAdmin,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("create engine participant: %w", err)
		}
		log.Info().Str("id", domain.EngineID.String()).Msg("engine participant created")
	}

	escrow, err := accounts.GetByOwner(ctx, domain.EscrowAccountID)
	if err != nil {
		return fmt.Errorf("lookup escrow account: %w", err)
	}
	if escrow == nil {
		now := time.Now().UTC()
		if err := accounts.Create(ctx, &domain.Account{
			Owner:     domain.EscrowAccountID,
			Balance:   0,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("create escrow account: %w", err)
		}
		log.Info().Msg("escrow account created")
	}

	if err := reputation.Authorize(ctx, domain.EngineID); err != nil {
		return fmt.Errorf("authorize engine as reputation writer: %w", err)
	}

	return nil
}
