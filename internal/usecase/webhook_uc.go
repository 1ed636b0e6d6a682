package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/ports/adapter"
	"listing-marketplace/internal/infra/logging"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// Gateway webhook events the ledger reacts to.
const (
	EventSubscriptionAuthenticated = "subscription.authenticated"
	EventSubscriptionActivated     = "subscription.activated"
	EventSubscriptionCharged       = "subscription.charged"
	EventSubscriptionCancelled     = "subscription.cancelled"
	EventSubscriptionCompleted     = "subscription.completed"
	EventPaymentFailed             = "payment.failed"
)

// WebhookUseCase is the trust boundary for asynchronous gateway events.
type WebhookUseCase interface {
	// Ingest verifies signature over the exact raw body before parsing anything.
	Ingest(ctx context.Context, body []byte, signature string) (*WebhookResult, error)
}

type WebhookResult struct {
	Event   string
	Outcome Outcome
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription *struct {
			Entity struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"subscription"`
		Payment *struct {
			Entity struct {
				ID             string `json:"id"`
				Amount         int64  `json:"amount"`
				SubscriptionID string `json:"subscription_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (e *webhookEnvelope) subscriptionID() string {
	if e.Payload.Subscription != nil {
		return e.Payload.Subscription.Entity.ID
	}
	return ""
}

type webhookUC struct {
	subs    SubscriptionUseCase
	gateway adapter.PaymentGateway
	replay  adapter.ReplayGuard
	ttl     time.Duration
	log     *zerolog.Logger
}

// NewWebhookUseCase wires ingest. replay may be nil; the ledger itself is idempotent and the
// guard only short-circuits exact redeliveries of events that were already applied.
func NewWebhookUseCase(subs SubscriptionUseCase, gateway adapter.PaymentGateway, replay adapter.ReplayGuard, replayTTL time.Duration, logger *zerolog.Logger) *webhookUC {
	return &webhookUC{subs: subs, gateway: gateway, replay: replay, ttl: replayTTL, log: logger}
}

func (u *webhookUC) Ingest(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	defer logging.TraceDuration(u.log, "WebhookUC.Ingest")()
	log := logging.With(ctx, u.log)

	if err := u.gateway.VerifyWebhookSignature(body, signature); err != nil {
		log.Warn().Err(err).Int("bytes", len(body)).Msg("webhook rejected")
		return nil, err
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Warn().Err(err).Msg("malformed webhook body")
		return nil, domain.WrapError(domain.ErrValidation, "malformed webhook body", err)
	}
	res := &WebhookResult{Event: env.Event, Outcome: OutcomeIgnored}
	if env.Event == "" {
		log.Debug().Msg("webhook without event acknowledged")
		return res, nil
	}

	key := ""
	if u.replay != nil {
		sum := sha256.Sum256(body)
		key = "webhook:" + hex.EncodeToString(sum[:])
		seen, err := u.replay.Seen(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("replay guard unavailable; processing anyway")
			key = ""
		} else if seen {
			res.Outcome = OutcomeDuplicate
			log.Debug().Str("event", env.Event).Msg("webhook redelivery short-circuited")
			return res, nil
		}
	}

	outcome, err := u.dispatch(ctx, &env)
	if err != nil {
		log.Error().Err(err).Str("event", env.Event).Msg("webhook processing failed")
		return nil, err
	}
	// Only committed events are remembered; the request may already be cancelled here.
	if key != "" {
		if rerr := u.replay.Remember(context.WithoutCancel(ctx), key, u.ttl); rerr != nil {
			log.Warn().Err(rerr).Msg("failed to remember webhook key")
		}
	}
	res.Outcome = outcome

	ev := log.Info()
	if outcome == OutcomeIgnored {
		ev = log.Debug()
	}
	ev.Str("event", env.Event).Str("subscription_id", env.subscriptionID()).Str("outcome", string(outcome)).Msg("webhook processed")
	return res, nil
}

func (u *webhookUC) dispatch(ctx context.Context, env *webhookEnvelope) (Outcome, error) {
	switch env.Event {
	case EventSubscriptionAuthenticated:
		return u.subs.Authenticate(ctx, env.subscriptionID())
	case EventSubscriptionActivated:
		return u.subs.Activate(ctx, env.subscriptionID())
	case EventSubscriptionCharged:
		if env.Payload.Payment == nil {
			return OutcomeIgnored, nil
		}
		p := env.Payload.Payment.Entity
		return u.subs.Charge(ctx, env.subscriptionID(), p.ID, p.Amount)
	case EventPaymentFailed:
		if env.Payload.Payment == nil {
			return OutcomeIgnored, nil
		}
		return u.subs.MarkPaymentFailed(ctx, env.Payload.Payment.Entity.SubscriptionID)
	case EventSubscriptionCancelled:
		return u.subs.Cancel(ctx, env.subscriptionID())
	case EventSubscriptionCompleted:
		return u.subs.Complete(ctx, env.subscriptionID())
	}
	return OutcomeIgnored, nil
}
