package handler

import (
	"zk-lending-engine/internal/adapter/http/middleware"
	redisStore "zk-lending-engine/internal/adapter/storage/redis"
	"zk-lending-engine/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LendingSvc     ports.LendingService
	AccountSvc     ports.AccountService
	ReputationSvc  ports.ReputationService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	adminOnly := middleware.AdminOnly()

	offerHandler := NewOfferHandler(deps.LendingSvc)
	offers := v1.Group("/offers", jwtAuth)
	{
		offers.POST("", rl("offers"), offerHandler.Create)
		offers.GET("", rl("reads"), offerHandler.ListMine)
		offers.GET("/:id", rl("reads"), offerHandler.Get)
		offers.POST("/:id/cancel", rl("offers"), offerHandler.Cancel)
	}

	verificationHandler := NewVerificationHandler(deps.LendingSvc)
	proofs := v1.Group("/proofs", jwtAuth)
	{
		proofs.POST("", rl("proofs"), verificationHandler.SubmitProof)
	}

	// Trusted reporter result delivery (admin only)
	verifications := v1.Group("/verifications", jwtAuth, adminOnly)
	{
		verifications.POST("", rl("proofs"), verificationHandler.RecordVerification)
	}

	loanHandler := NewLoanHandler(deps.LendingSvc)
	loans := v1.Group("/loans", jwtAuth)
	{
		loans.POST("", rl("loans"), loanHandler.Request)
		loans.GET("", rl("reads"), loanHandler.List)
		loans.GET("/:id", rl("reads"), loanHandler.Get)
		loans.GET("/:id/events", rl("reads"), loanHandler.ListEvents)
		loans.POST("/:id/payments", rl("loans"), loanHandler.MakePayment)
		loans.POST("/:id/check-default", rl("loans"), loanHandler.CheckDefault)
	}

	accountHandler := NewAccountHandler(deps.AccountSvc)
	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.POST("/deposit", rl("accounts"), accountHandler.Deposit)
		accounts.GET("/balance", rl("reads"), accountHandler.GetBalance)
	}

	reputationHandler := NewReputationHandler(deps.ReputationSvc)
	reputation := v1.Group("/reputation", jwtAuth)
	{
		reputation.GET("/:participant_id", rl("reads"), reputationHandler.GetScore)
		reputation.POST("/scores", adminOnly, rl("reads"), reputationHandler.InitializeScore)
		reputation.POST("/writers", adminOnly, rl("reads"), reputationHandler.AuthorizeWriter)
		reputation.DELETE("/writers/:caller_id", adminOnly, rl("reads"), reputationHandler.DeauthorizeWriter)
	}

	return r
}
