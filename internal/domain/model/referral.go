package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
)

// WithdrawalThreshold is the minimum referral balance (and request amount) in rupees.
var WithdrawalThreshold = decimal.NewFromInt(10)

// MoneyPlaces matches the NUMERIC(12,2) columns holding referral money.
const MoneyPlaces = 2

// CheckMoneyPrecision rejects amounts finer than a paisa; storing them would round the
// balance and the request separately.
func CheckMoneyPrecision(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyPlaces)) {
		return domain.NewError(domain.ErrValidation, "amount must have at most 2 decimal places")
	}
	return nil
}

type PayoutChannel string

const (
	PayoutChannelPhonePe PayoutChannel = "phonepe"
	PayoutChannelGPay    PayoutChannel = "gpay"
)

// ParsePayoutChannel defaults to phonepe when s is empty.
func ParsePayoutChannel(s string) (PayoutChannel, error) {
	switch PayoutChannel(strings.ToLower(strings.TrimSpace(s))) {
	case "", PayoutChannelPhonePe:
		return PayoutChannelPhonePe, nil
	case PayoutChannelGPay:
		return PayoutChannelGPay, nil
	}
	return "", domain.NewError(domain.ErrValidation, "channel must be gpay or phonepe")
}

// NormalizePayoutPhone strips non-digits and requires exactly 10 remaining.
func NormalizePayoutPhone(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() != 10 {
		return "", domain.NewError(domain.ErrValidation, "please provide a valid 10-digit UPI phone number")
	}
	return b.String(), nil
}

type WithdrawalAction string

const (
	WithdrawalApprove WithdrawalAction = "approve"
	WithdrawalReject  WithdrawalAction = "reject"
)

func ParseWithdrawalAction(s string) (WithdrawalAction, error) {
	switch a := WithdrawalAction(strings.ToLower(strings.TrimSpace(s))); a {
	case WithdrawalApprove, WithdrawalReject:
		return a, nil
	}
	return "", domain.NewError(domain.ErrValidation, "action must be approve or reject")
}

// WithdrawalRequest is the single pending payout of an identity. The amount has already
// been debited from the referral balance.
type WithdrawalRequest struct {
	Amount      decimal.Decimal
	Channel     PayoutChannel
	PayoutPhone string
	RequestedAt time.Time
}

// PendingWithdrawal is the admin view of a request.
type PendingWithdrawal struct {
	IdentityID string
	Name       string
	Email      *string
	Phone      *string
	Request    WithdrawalRequest
}

// NewReferralCode returns 8 upper-case hex characters.
func NewReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
