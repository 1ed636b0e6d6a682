package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listing-marketplace/internal/config"
	"listing-marketplace/internal/domain/ports/adapter"
	"listing-marketplace/internal/domain/ports/repository"
	payAdapters "listing-marketplace/internal/infra/adapters/payment"
	"listing-marketplace/internal/infra/adapters/storage"
	"listing-marketplace/internal/infra/api"
	pg "listing-marketplace/internal/infra/db/postgres"
	"listing-marketplace/internal/infra/logging"
	"listing-marketplace/internal/infra/metrics"
	red "listing-marketplace/internal/infra/redis"
	"listing-marketplace/internal/infra/sched"
	"listing-marketplace/internal/infra/scheduler"
	"listing-marketplace/internal/infra/security"
	"listing-marketplace/internal/infra/worker"
	"listing-marketplace/internal/usecase"
)

// Set with -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("development mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.SamplePoolStats(ctx, pool, 15*time.Second, logger)

	// ---- Redis (optional) ----
	var (
		redisClient *red.Client
		limiter     api.RateLimiter
		replay      adapter.ReplayGuard
		locker      sched.Locker
	)
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		replay = red.NewReplayGuard(redisClient)
		locker = red.NewLocker(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; rate limiting, webhook replay guard and auditor lock disabled")
	}

	// ---- Encryption ----
	var cipher pg.FieldCipher
	if cfg.Security.EncryptionKey != "" {
		fc, err := security.NewFieldCipher(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption")
		}
		cipher = fc
	} else {
		logger.Warn().Msg("security.encryption_key not set; payout phone numbers are stored in clear")
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	identities := pg.NewIdentityRepo(pool, cipher)
	var profiles repository.ProfileRepository = pg.NewProfileRepo(pool)
	if redisClient != nil {
		profiles = pg.NewProfileRepoCacheDecorator(profiles, redisClient, 30*time.Second, logger)
	}
	orders := pg.NewPaymentOrderRepo(pool)
	subs := pg.NewSubscriptionRepo(pool)
	recurring := pg.NewRecurringPaymentRepo(pool)
	goldTxs := pg.NewGoldTransactionRepo(pool)
	promotions := pg.NewPromotionRepo(pool)
	complaints := pg.NewComplaintRepo(pool)

	// ---- Gateway ----
	var gateway adapter.PaymentGateway
	switch cfg.Gateway.Provider {
	case "noop":
		logger.Warn().Msg("using noop payment gateway")
		gateway = payAdapters.NewNoopPaymentGateway(cfg.Gateway.Razorpay.KeySecret, cfg.Gateway.Razorpay.WebhookSecret)
	default:
		gateway = payAdapters.NewRazorpayGateway(cfg.Gateway.Razorpay, logger)
	}

	// ---- Image storage (optional) ----
	var images adapter.ImageStore
	if cfg.Storage.Enabled {
		store, err := storage.NewS3Store(ctx, cfg.Storage, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("image storage")
		}
		images = store
	}

	// ---- Use cases ----
	authUC := usecase.NewAuthUseCase(identities, tm, logger)
	profileUC := usecase.NewProfileUseCase(identities, profiles, images, tm, logger)
	paymentUC := usecase.NewPaymentUseCase(identities, profiles, orders, gateway, tm, logger)
	subUC := usecase.NewSubscriptionUseCase(identities, profiles, subs, recurring, gateway, tm, logger)
	webhookUC := usecase.NewWebhookUseCase(subUC, gateway, replay, cfg.Redis.TTL, logger)
	goldUC := usecase.NewGoldUseCase(identities, profiles, goldTxs, tm, logger)
	referralUC := usecase.NewReferralUseCase(identities, tm, logger)
	auditUC := usecase.NewAuditUseCase(identities, goldTxs, tm, logger)
	promotionUC := usecase.NewPromotionUseCase(promotions, images, tm, logger)
	helpUC := usecase.NewHelpUseCase(complaints, logger)

	// ---- Ledger auditor ----
	workers := worker.NewPool(cfg.Audit.Workers, logger)
	workers.Start(ctx)
	defer workers.Stop()
	auditor := sched.NewLedgerAuditor(auditUC, workers, locker, 0, logger)
	auditSched := scheduler.NewScheduler(cfg.Audit.Interval, 0, auditor, logger)
	auditSched.Start(ctx)
	defer auditSched.Stop()

	// ---- HTTP ----
	srv := api.NewServer(api.Deps{
		Auth:          authUC,
		Profiles:      profileUC,
		Payments:      paymentUC,
		Subscriptions: subUC,
		Webhooks:      webhookUC,
		Gold:          goldUC,
		Referral:      referralUC,
		Promotions:    promotionUC,
		Help:          helpUC,
		Tokens:        api.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Limiter:       limiter,
		AdminAPIKey:   cfg.Admin.APIKey,
		AdMobKeyIDs:   cfg.AdMob.KeyIDs,
	}, cfg.HTTP, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	cancel()
}
