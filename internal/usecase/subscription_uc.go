// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/adapter"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/logging"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase owns the recurring subscription ledger. Only CreateSubscription is
// reachable from clients; the transition methods are driven by verified webhooks.
type SubscriptionUseCase interface {
	CreateSubscription(ctx context.Context, callerID, requestedID, planKind string) (*model.RecurringSubscription, error)
	ListByIdentity(ctx context.Context, identityID string) ([]*model.RecurringSubscription, error)

	Authenticate(ctx context.Context, gatewaySubID string) (Outcome, error)
	Activate(ctx context.Context, gatewaySubID string) (Outcome, error)
	Charge(ctx context.Context, gatewaySubID, gatewayPaymentID string, amountMinor int64) (Outcome, error)
	MarkPaymentFailed(ctx context.Context, gatewaySubID string) (Outcome, error)
	Cancel(ctx context.Context, gatewaySubID string) (Outcome, error)
	Complete(ctx context.Context, gatewaySubID string) (Outcome, error)
}

// Outcome of applying an external event to the ledger.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type subscriptionUC struct {
	identities repository.IdentityRepository
	subs       repository.RecurringSubscriptionRepository
	payments   repository.RecurringPaymentRepository
	grants     grantWriter
	gateway    adapter.PaymentGateway
	tm         repository.TransactionManager
	log        *zerolog.Logger
	now        func() time.Time
}

func NewSubscriptionUseCase(
	identities repository.IdentityRepository,
	profiles repository.ProfileRepository,
	subs repository.RecurringSubscriptionRepository,
	payments repository.RecurringPaymentRepository,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{
		identities: identities,
		subs:       subs,
		payments:   payments,
		grants:     grantWriter{identities: identities, profiles: profiles},
		gateway:    gateway,
		tm:         tm,
		log:        logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (u *subscriptionUC) WithClock(now func() time.Time) *subscriptionUC {
	u.now = now
	return u
}

var txReadCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

func (u *subscriptionUC) CreateSubscription(ctx context.Context, callerID, requestedID, planKind string) (*model.RecurringSubscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.CreateSubscription")()

	if requestedID != "" && requestedID != callerID {
		return nil, domain.NewError(domain.ErrAuthorization, "cannot create a subscription for another user")
	}
	kind, err := model.ParsePlanKind(planKind)
	if err != nil {
		return nil, err
	}
	planID, err := u.gateway.PlanID(string(kind))
	if err != nil {
		return nil, err
	}
	identity, err := u.identities.FindByID(ctx, repository.NoTX, callerID)
	if err != nil {
		return nil, err
	}
	customerID, err := u.customerFor(ctx, identity)
	if err != nil {
		return nil, err
	}

	now := u.now()
	gatewaySubID, err := u.gateway.CreateSubscription(ctx, adapter.SubscriptionInput{
		PlanID:     planID,
		CustomerID: customerID,
		TotalCount: model.SubscriptionTotalCycles,
		StartAt:    now.Add(time.Minute),
		ExpireBy:   now.Add(model.SubscriptionPeriod),
		Notes: map[string]string{
			"identity_id": identity.ID,
			"plan_type":   strings.ToUpper(string(kind)),
		},
	})
	if err != nil {
		return nil, err
	}

	sub, err := model.NewRecurringSubscription(identity.ID, kind, planID, gatewaySubID)
	if err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		logging.With(ctx, u.log).Error().Err(err).Str("gateway_subscription_id", gatewaySubID).Msg("remote subscription created but local save failed")
		return nil, err
	}
	return sub, nil
}

// customerFor returns the cached gateway customer or creates and caches one.
func (u *subscriptionUC) customerFor(ctx context.Context, identity *model.Identity) (string, error) {
	if identity.GatewayCustomerID != nil && *identity.GatewayCustomerID != "" {
		return *identity.GatewayCustomerID, nil
	}
	in := adapter.CustomerInput{Name: identity.Name, Notes: map[string]string{"identity_id": identity.ID}}
	if identity.Email != nil {
		in.Email = *identity.Email
	}
	if identity.Phone != nil {
		in.Contact = *identity.Phone
		if len(in.Contact) == 10 {
			in.Contact = "91" + in.Contact
		}
	}
	customerID, err := u.gateway.CreateCustomer(ctx, in)
	if err != nil {
		return "", err
	}
	err = u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		id, err := u.identities.FindByID(ctx, tx, identity.ID)
		if err != nil {
			return err
		}
		if id.GatewayCustomerID != nil && *id.GatewayCustomerID != "" {
			customerID = *id.GatewayCustomerID
			return nil
		}
		id.GatewayCustomerID = &customerID
		id.UpdatedAt = u.now()
		return u.identities.Update(ctx, tx, id)
	})
	if err != nil {
		return "", err
	}
	identity.GatewayCustomerID = &customerID
	return customerID, nil
}

func (u *subscriptionUC) ListByIdentity(ctx context.Context, identityID string) ([]*model.RecurringSubscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.ListByIdentity")()
	return u.subs.ListByIdentity(ctx, repository.NoTX, identityID)
}

// withSubscription runs fn on the row-locked subscription. Unknown ids are ignored.
func (u *subscriptionUC) withSubscription(ctx context.Context, gatewaySubID string, fn func(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) (Outcome, error)) (Outcome, error) {
	if gatewaySubID == "" {
		return OutcomeIgnored, nil
	}
	outcome := OutcomeIgnored
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		s, err := u.subs.FindByGatewayID(ctx, tx, gatewaySubID)
		if errors.Is(err, domain.ErrNotFound) {
			outcome = OutcomeIgnored
			return nil
		}
		if err != nil {
			return err
		}
		outcome, err = fn(ctx, tx, s)
		return err
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func isTerminal(s model.SubscriptionStatus) bool {
	switch s {
	case model.SubscriptionStatusCancelled, model.SubscriptionStatusCompleted, model.SubscriptionStatusExpired:
		return true
	}
	return false
}

func (u *subscriptionUC) setStatus(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription, status model.SubscriptionStatus) (Outcome, error) {
	if s.Status == status {
		return OutcomeDuplicate, nil
	}
	s.Status = status
	s.UpdatedAt = u.now()
	if err := u.subs.Update(ctx, tx, s); err != nil {
		return "", err
	}
	return OutcomeApplied, nil
}

func (u *subscriptionUC) Authenticate(ctx context.Context, gatewaySubID string) (Outcome, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Authenticate")()
	return u.withSubscription(ctx, gatewaySubID, func(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) (Outcome, error) {
		if s.Status != model.SubscriptionStatusCreated {
			return OutcomeDuplicate, nil
		}
		return u.setStatus(ctx, tx, s, model.SubscriptionStatusAuthenticated)
	})
}

// Activate starts the first cycle and grants the window. Replays and activations of
// already-running or terminated subscriptions are no-ops.
func (u *subscriptionUC) Activate(ctx context.Context, gatewaySubID string) (Outcome, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Activate")()
	return u.withSubscription(ctx, gatewaySubID, func(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) (Outcome, error) {
		if s.ExpiresAt != nil || isTerminal(s.Status) {
			return OutcomeDuplicate, nil
		}
		now := u.now()
		s.Activate(now)
		if err := u.subs.Update(ctx, tx, s); err != nil {
			return "", err
		}
		if _, err := u.grants.apply(ctx, tx, model.StagedGrant{IdentityID: s.IdentityID, Kind: s.PlanKind}, s.StartAt, *s.ExpiresAt); err != nil {
			return "", err
		}
		return OutcomeApplied, nil
	})
}

// Charge records a billing cycle. A duplicate (subscription, payment) pair changes nothing;
// a new one extends expiry by one period from the previous expiry.
func (u *subscriptionUC) Charge(ctx context.Context, gatewaySubID, gatewayPaymentID string, amountMinor int64) (Outcome, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Charge")()
	if gatewayPaymentID == "" {
		return OutcomeIgnored, nil
	}
	return u.withSubscription(ctx, gatewaySubID, func(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) (Outcome, error) {
		now := u.now()
		inserted, err := u.payments.Insert(ctx, tx, &model.RecurringPayment{
			ID:               "rpay_" + ulid.Make().String(),
			IdentityID:       s.IdentityID,
			SubscriptionID:   s.ID,
			GatewayPaymentID: gatewayPaymentID,
			Amount:           decimal.New(amountMinor, -2),
			ChargedAt:        now,
			Status:           model.RecurringPaymentStatusCaptured,
		})
		if err != nil {
			return "", err
		}
		if !inserted {
			return OutcomeDuplicate, nil
		}
		var start *time.Time
		if s.StartAt == nil {
			s.StartAt = &now
			start = &now
		}
		end := s.Extend(now)
		if err := u.subs.Update(ctx, tx, s); err != nil {
			return "", err
		}
		if _, err := u.grants.apply(ctx, tx, model.StagedGrant{IdentityID: s.IdentityID, Kind: s.PlanKind}, start, end); err != nil {
			return "", err
		}
		return OutcomeApplied, nil
	})
}

// MarkPaymentFailed never revokes a granted window; access lapses at expiry.
func (u *subscriptionUC) MarkPaymentFailed(ctx context.Context, gatewaySubID string) (Outcome, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.MarkPaymentFailed")()
	return u.withSubscription(ctx, gatewaySubID, func(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) (Outcome, error) {
		if isTerminal(s.Status) {
			return OutcomeDuplicate, nil
		}
		return u.setStatus(ctx, tx, s, model.SubscriptionStatusPaymentFailed)
	})
}

func (u *subscriptionUC) Cancel(ctx context.Context, gatewaySubID string) (Outcome, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Cancel")()
	return u.withSubscription(ctx, gatewaySubID, func(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) (Outcome, error) {
		return u.setStatus(ctx, tx, s, model.SubscriptionStatusCancelled)
	})
}

func (u *subscriptionUC) Complete(ctx context.Context, gatewaySubID string) (Outcome, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Complete")()
	return u.withSubscription(ctx, gatewaySubID, func(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) (Outcome, error) {
		if s.Status == model.SubscriptionStatusCancelled {
			return OutcomeDuplicate, nil
		}
		return u.setStatus(ctx, tx, s, model.SubscriptionStatusCompleted)
	})
}
