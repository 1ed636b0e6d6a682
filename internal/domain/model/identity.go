package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
)

// Identity is the canonical account record. Wallet balances, referral state and the
// staged subscription grants all live on it.
type Identity struct {
	ID           string
	Name         string
	Email        *string
	Phone        *string
	PasswordHash string

	ServiceProfileID  *string
	ShopProfileID     *string
	GatewayCustomerID *string

	GoldBalance     int64
	AdsWatchedToday int
	LastAdWatchAt   *time.Time
	IsPremium       bool
	AdFreeUntil     *time.Time

	ReferralCode    *string
	ReferralBalance decimal.Decimal
	ReferredBy      *string
	Withdrawal      *WithdrawalRequest

	PendingServiceEndAt *time.Time
	PendingShopEndAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewIdentity validates contact details and builds a fresh account.
// Email is lower-cased; at least one of email or phone is required.
func NewIdentity(name, email, phone, passwordHash string) (*Identity, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, domain.NewError(domain.ErrValidation, "name is required")
	}
	if email == "" && phone == "" {
		return nil, domain.NewError(domain.ErrValidation, "either email or phone number is required")
	}
	if passwordHash == "" {
		return nil, domain.NewError(domain.ErrValidation, "password is required")
	}
	now := time.Now()
	id := &Identity{
		ID:              uuid.NewString(),
		Name:            name,
		PasswordHash:    passwordHash,
		ReferralBalance: decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if email != "" {
		id.Email = &email
	}
	if phone != "" {
		id.Phone = &phone
	}
	return id, nil
}

func (i *Identity) IsZero() bool { return i == nil || i.ID == "" }

// ProfileID returns the linked profile for the given kind, if any.
func (i *Identity) ProfileID(kind ProfileKind) *string {
	if kind == ProfileKindShop {
		return i.ShopProfileID
	}
	return i.ServiceProfileID
}

// PendingEndAt returns the staged subscription end date for kind.
func (i *Identity) PendingEndAt(kind ProfileKind) *time.Time {
	if kind == ProfileKindShop {
		return i.PendingShopEndAt
	}
	return i.PendingServiceEndAt
}

// SetPendingEndAt stages (or clears, with nil) a subscription end date for kind.
func (i *Identity) SetPendingEndAt(kind ProfileKind, end *time.Time) {
	if kind == ProfileKindShop {
		i.PendingShopEndAt = end
		return
	}
	i.PendingServiceEndAt = end
}

// IsAdFree reports whether ads are suppressed at now.
func (i *Identity) IsAdFree(now time.Time) bool {
	if i.IsPremium {
		return true
	}
	return i.AdFreeUntil != nil && i.AdFreeUntil.After(now)
}
