package model

import (
	"time"

	"github.com/google/uuid"

	"listing-marketplace/internal/domain"
)

type GoldKind string

const (
	GoldKindEarn  GoldKind = "earn"
	GoldKindSpend GoldKind = "spend"
)

type GoldSource string

const (
	GoldSourceRewardAd    GoldSource = "reward_ad"
	GoldSourceUnlockPhone GoldSource = "unlock_phone"
	GoldSourceBoostShop   GoldSource = "boost_shop"
	GoldSourceRemoveAds   GoldSource = "remove_ads"
)

const (
	DailyAdLimit   = 20
	AdReward       = 1
	BoostDuration  = 7 * 24 * time.Hour
	AdFreeDuration = 30 * 24 * time.Hour
)

var goldCosts = map[GoldSource]int64{
	GoldSourceUnlockPhone: 2,
	GoldSourceBoostShop:   10,
	GoldSourceRemoveAds:   5,
}

// SpendCost returns the price of a spendable source.
func SpendCost(src GoldSource) (int64, bool) {
	c, ok := goldCosts[src]
	return c, ok
}

// ParseSpendSource validates a client-supplied spend reason.
func ParseSpendSource(s string) (GoldSource, error) {
	src := GoldSource(s)
	if _, ok := goldCosts[src]; !ok {
		return "", domain.NewError(domain.ErrValidation, "invalid spend type")
	}
	return src, nil
}

// GoldTransaction is an append-only wallet log entry.
type GoldTransaction struct {
	ID         string
	IdentityID string
	Kind       GoldKind
	Amount     int64 // always > 0
	Source     GoldSource
	CreatedAt  time.Time
}

func NewGoldTransaction(identityID string, kind GoldKind, amount int64, src GoldSource, at time.Time) (*GoldTransaction, error) {
	if identityID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &GoldTransaction{
		ID:         uuid.NewString(),
		IdentityID: identityID,
		Kind:       kind,
		Amount:     amount,
		Source:     src,
		CreatedAt:  at,
	}, nil
}

// Signed returns the balance delta of the entry.
func (t *GoldTransaction) Signed() int64 {
	if t.Kind == GoldKindSpend {
		return -t.Amount
	}
	return t.Amount
}

// SameDay compares calendar dates in now's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// NormalizeDailyCounters returns a copy of id with the ad counter zeroed when the last ad was
// watched on an earlier calendar day than now. It is idempotent.
func NormalizeDailyCounters(id Identity, now time.Time) Identity {
	if id.LastAdWatchAt == nil || !SameDay(now, *id.LastAdWatchAt) {
		id.AdsWatchedToday = 0
	}
	return id
}

// AdsRemainingToday is meaningful only on a normalized identity.
func AdsRemainingToday(id Identity) int {
	if r := DailyAdLimit - id.AdsWatchedToday; r > 0 {
		return r
	}
	return 0
}
