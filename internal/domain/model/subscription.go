package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusCreated       SubscriptionStatus = "created"
	SubscriptionStatusAuthenticated SubscriptionStatus = "authenticated"
	SubscriptionStatusActive        SubscriptionStatus = "active"
	SubscriptionStatusPaymentFailed SubscriptionStatus = "payment_failed"
	SubscriptionStatusCancelled     SubscriptionStatus = "cancelled"
	SubscriptionStatusCompleted     SubscriptionStatus = "completed"
	SubscriptionStatusExpired       SubscriptionStatus = "expired"
)

// SubscriptionTotalCycles is the billing-cycle count requested for every mandate (3 years, monthly).
const SubscriptionTotalCycles = 35

// ParsePlanKind accepts SERVICE or SHOP in any case.
func ParsePlanKind(s string) (ProfileKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "service":
		return ProfileKindService, nil
	case "shop":
		return ProfileKindShop, nil
	}
	return "", domain.NewError(domain.ErrValidation, "planType must be SERVICE or SHOP")
}

// RecurringSubscription mirrors a gateway-side autopay mandate.
// Only the created state is reachable from client calls; the rest come from webhooks.
type RecurringSubscription struct {
	ID                    string
	IdentityID            string
	PlanKind              ProfileKind
	GatewayPlanID         string
	GatewaySubscriptionID string
	Status                SubscriptionStatus
	StartAt               *time.Time // nil until activated
	ExpiresAt             *time.Time // nil until activated
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewRecurringSubscription builds a subscription in created status after the remote mandate exists.
func NewRecurringSubscription(identityID string, kind ProfileKind, planID, gatewaySubID string) (*RecurringSubscription, error) {
	if identityID == "" || gatewaySubID == "" || !kind.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &RecurringSubscription{
		ID:                    uuid.NewString(),
		IdentityID:            identityID,
		PlanKind:              kind,
		GatewayPlanID:         planID,
		GatewaySubscriptionID: gatewaySubID,
		Status:                SubscriptionStatusCreated,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// Activate starts the first cycle at now.
func (s *RecurringSubscription) Activate(now time.Time) {
	end := now.Add(SubscriptionPeriod)
	s.Status = SubscriptionStatusActive
	s.StartAt = &now
	s.ExpiresAt = &end
	s.UpdatedAt = now
}

// Extend adds one cycle to the previous expiry, or to now when the subscription was never activated.
func (s *RecurringSubscription) Extend(now time.Time) time.Time {
	base := now
	if s.ExpiresAt != nil {
		base = *s.ExpiresAt
	}
	end := base.Add(SubscriptionPeriod)
	s.ExpiresAt = &end
	s.Status = SubscriptionStatusActive
	s.UpdatedAt = now
	return end
}

type RecurringPaymentStatus string

const RecurringPaymentStatusCaptured RecurringPaymentStatus = "captured"

// RecurringPayment is one charged billing cycle. (SubscriptionID, GatewayPaymentID) is unique.
type RecurringPayment struct {
	ID               string
	IdentityID       string
	SubscriptionID   string
	GatewayPaymentID string
	Amount           decimal.Decimal // major units; the gateway reports minor units
	ChargedAt        time.Time
	Status           RecurringPaymentStatus
}
