package model

import (
	"strings"
	"time"

	"listing-marketplace/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // remote order created; awaiting checkout callback
	PaymentStatusCompleted PaymentStatus = "completed" // signature verified; grant applied
	PaymentStatusFailed    PaymentStatus = "failed"    // signature mismatch
	PaymentStatusRefunded  PaymentStatus = "refunded"  // reversed out of band
)

// OrderKind identifies what a one-shot order pays for.
type OrderKind string

const (
	OrderKindServiceListing OrderKind = "service_listing"
	OrderKindShopListing    OrderKind = "shop_listing"
)

// Currency of every price in this ledger.
const Currency = "INR"

// SubscriptionPeriod is the access window bought by one payment or one billing cycle.
const SubscriptionPeriod = 30 * 24 * time.Hour

// orderPrices in minor units (paise).
var orderPrices = map[OrderKind]int64{
	OrderKindServiceListing: 1000,
	OrderKindShopListing:    2500,
}

// ParseOrderKind accepts the canonical names and the hyphenated/upper-case variants clients send.
func ParseOrderKind(s string) (OrderKind, error) {
	k := OrderKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := orderPrices[k]; !ok {
		return "", domain.NewError(domain.ErrValidation, "invalid payment type")
	}
	return k, nil
}

// Price returns the amount in minor units for k.
func (k OrderKind) Price() (int64, bool) {
	p, ok := orderPrices[k]
	return p, ok
}

// ProfileKind maps the order to the profile it grants access to.
func (k OrderKind) ProfileKind() ProfileKind {
	if k == OrderKindShopListing {
		return ProfileKindShop
	}
	return ProfileKindService
}

// PaymentOrder records a one-shot payment intent and its verified outcome.
type PaymentOrder struct {
	ID               string        // local order id, "ord_<ulid>"
	GatewayOrderID   string        // remote order id
	GatewayPaymentID *string       // set on completion
	IdentityID       string        // owner
	Kind             OrderKind     // what is being paid for
	ProfileID        *string       // profile linked at creation; nil means the grant is staged on the identity
	Amount           int64         // minor units
	Currency         string        // always INR
	Status           PaymentStatus // see constants above
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPaymentOrder builds a pending order after the remote order has been created.
func NewPaymentOrder(id, gatewayOrderID string, identity *Identity, kind OrderKind) (*PaymentOrder, error) {
	if id == "" || gatewayOrderID == "" || identity.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	amount, ok := kind.Price()
	if !ok {
		return nil, domain.NewError(domain.ErrValidation, "invalid payment type")
	}
	now := time.Now()
	return &PaymentOrder{
		ID:             id,
		GatewayOrderID: gatewayOrderID,
		IdentityID:     identity.ID,
		Kind:           kind,
		ProfileID:      identity.ProfileID(kind.ProfileKind()),
		Amount:         amount,
		Currency:       Currency,
		Status:         PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// GrantTarget resolves where the access window bought by this order lands.
func (o *PaymentOrder) GrantTarget() GrantTarget {
	if o.ProfileID != nil && *o.ProfileID != "" {
		return ProfileGrant{ProfileID: *o.ProfileID, Kind: o.Kind.ProfileKind()}
	}
	return StagedGrant{IdentityID: o.IdentityID, Kind: o.Kind.ProfileKind()}
}
