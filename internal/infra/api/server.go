package api

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"listing-marketplace/internal/config"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/infra/logging"
	"listing-marketplace/internal/usecase"
)

// Deps groups everything the HTTP surface needs. Limiter may be nil.
type Deps struct {
	Auth          usecase.AuthUseCase
	Profiles      usecase.ProfileUseCase
	Payments      usecase.PaymentUseCase
	Subscriptions usecase.SubscriptionUseCase
	Webhooks      usecase.WebhookUseCase
	Gold          usecase.GoldUseCase
	Referral      usecase.ReferralUseCase
	Promotions    usecase.PromotionUseCase
	Help          usecase.HelpUseCase

	Tokens      *TokenManager
	Limiter     RateLimiter
	AdminAPIKey string
	AdMobKeyIDs []string
}

// Server exposes the marketplace JSON API.
type Server struct {
	deps     Deps
	cfg      config.HTTPConfig
	log      *zerolog.Logger
	validate *validator.Validate
	srv      *http.Server
}

func NewServer(deps Deps, cfg config.HTTPConfig, logger *zerolog.Logger) *Server {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	s := &Server{deps: deps, cfg: cfg, log: logger, validate: v}
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Router builds the full handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))
	if s.cfg.RequestTimeout > 0 {
		r.Use(Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, "ok", nil)
	})
	r.Handle("/metrics", promhttp.Handler())

	authed := RequireIdentity(s.deps.Tokens)
	optional := OptionalIdentity(s.deps.Tokens)
	limited := func(group string) Middleware {
		return RateLimit(s.deps.Limiter, group, s.cfg.RateLimit, s.cfg.RateWindow, s.log)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limited("auth")).Post("/register", s.handleRegister)
			r.With(limited("auth")).Post("/login", s.handleLogin)
			r.With(authed).Get("/me", s.handleMe)
			r.With(authed, limited("auth")).Post("/change-password", s.handleChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(authed, limited("profile"))
				r.Post("/register-service-provider", s.handleProfileRegister(kindService))
				r.Patch("/service-provider", s.handleProfileUpdate(kindService))
				r.Get("/service-provider", s.handleProfileMine(kindService))
				r.Post("/register-shop", s.handleProfileRegister(kindShop))
				r.Patch("/shop", s.handleProfileUpdate(kindShop))
				r.Get("/shop", s.handleProfileMine(kindShop))
			})
		})

		r.With(optional).Get("/shops", s.handleListProfiles(kindShop))
		r.With(optional).Get("/shops/{id}", s.handleGetProfile(kindShop))
		r.With(optional).Get("/providers", s.handleListProfiles(kindService))
		r.With(optional).Get("/providers/{id}", s.handleGetProfile(kindService))

		r.Get("/promotions", s.handleActivePromotions)

		r.Route("/help", func(r chi.Router) {
			r.With(optional, limited("help")).Post("/", s.handleSubmitComplaint)
			r.With(authed).Get("/", s.handleMyComplaints)
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(authed, limited("payments")).Post("/create-order", s.handleCreateOrder)
			// The checkout signature authenticates this call.
			r.With(limited("payments")).Post("/verify", s.handleVerifyOrder)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(authed)
			r.Post("/create", s.handleCreateSubscription)
			r.Get("/", s.handleListSubscriptions)
		})

		r.Post("/webhooks/razorpay", s.handleWebhook)

		r.Route("/gold", func(r chi.Router) {
			r.Use(authed, limited("gold"))
			r.Post("/ad-watched", s.handleAdWatched)
			r.Post("/unlock-phone", s.handleSpend(model.GoldSourceUnlockPhone))
			r.Post("/boost-shop", s.handleSpend(model.GoldSourceBoostShop))
			r.Post("/remove-ads", s.handleSpend(model.GoldSourceRemoveAds))
			r.Get("/wallet", s.handleWallet)
		})

		r.Get("/admob/reward", s.handleAdMobReward)

		r.Route("/referral", func(r chi.Router) {
			r.Use(authed)
			r.Get("/me", s.handleReferralSummary)
			r.Post("/request-refund", s.handleRequestWithdrawal)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(s.deps.AdminAPIKey))
			r.Get("/referral/withdrawals", s.handleListWithdrawals)
			r.Patch("/referral/withdrawals/{identityID}", s.handleProcessWithdrawal)
			r.Post("/referral/rewards/{identityID}", s.handleCreditReward)
			r.Get("/shops", s.handleAdminListProfiles(kindShop))
			r.Get("/providers", s.handleAdminListProfiles(kindService))
			r.Get("/promotions", s.handleAllPromotions)
			r.Post("/promotions", s.handleCreatePromotion)
			r.Patch("/promotions/{id}", s.handleUpdatePromotion)
			r.Delete("/promotions/{id}", s.handleDeletePromotion)
		})
	})
	return r
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// fail logs server-side failures and writes the public error body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusOf(err)
	if status >= http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("kind", kind).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, r, err)
}
