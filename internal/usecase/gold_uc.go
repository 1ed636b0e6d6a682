package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/logging"
)

// Compile-time check
var _ GoldUseCase = (*goldUC)(nil)

type GoldUseCase interface {
	CreditForAdWatched(ctx context.Context, identityID string) (*AdStats, error)
	Spend(ctx context.Context, identityID, source string) (*SpendResult, error)
	GetWallet(ctx context.Context, identityID string, page, limit int) (*Wallet, error)
}

type AdStats struct {
	Balance         int64
	AdsWatchedToday int
	RemainingToday  int
	DailyLimit      int
	Premium         bool
	Credited        bool
}

type SpendResult struct {
	Balance        int64
	Source         model.GoldSource
	Cost           int64 // 0 for premium identities
	PhoneUnlocked  bool
	BoostExpiresAt *time.Time
	AdFreeUntil    *time.Time
}

type Wallet struct {
	Balance      int64
	Ads          AdStats
	Premium      bool
	AdFreeUntil  *time.Time
	Transactions []*model.GoldTransaction
	Page         int
	Limit        int
	Total        int
}

const (
	defaultWalletLimit = 20
	maxWalletLimit     = 50
	maxWalletPage      = 10_000
)

type goldUC struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	txs        repository.GoldTransactionRepository
	tm         repository.TransactionManager
	log        *zerolog.Logger
	now        func() time.Time
}

func NewGoldUseCase(identities repository.IdentityRepository, profiles repository.ProfileRepository, txs repository.GoldTransactionRepository, tm repository.TransactionManager, logger *zerolog.Logger) *goldUC {
	return &goldUC{identities: identities, profiles: profiles, txs: txs, tm: tm, log: logger, now: time.Now}
}

// WithClock replaces the time source.
func (u *goldUC) WithClock(now func() time.Time) *goldUC {
	u.now = now
	return u
}

func adStats(id model.Identity) AdStats {
	return AdStats{
		Balance:         id.GoldBalance,
		AdsWatchedToday: id.AdsWatchedToday,
		RemainingToday:  model.AdsRemainingToday(id),
		DailyLimit:      model.DailyAdLimit,
		Premium:         id.IsPremium,
	}
}

// CreditForAdWatched rewards one watched ad. On the daily cap it returns both the stats
// (remaining 0) and a rate-limit error.
func (u *goldUC) CreditForAdWatched(ctx context.Context, identityID string) (*AdStats, error) {
	defer logging.TraceDuration(u.log, "GoldUC.CreditForAdWatched")()

	var stats AdStats
	var capErr error
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.identities.FindByID(ctx, tx, identityID)
		if err != nil {
			return err
		}
		now := u.now()
		id := model.NormalizeDailyCounters(*cur, now)
		if id.IsPremium {
			stats = adStats(id)
			return nil
		}
		if id.AdsWatchedToday >= model.DailyAdLimit {
			stats = adStats(id)
			capErr = domain.NewError(domain.ErrRateLimited, "daily ad limit reached, come back tomorrow")
			return nil
		}
		t, err := model.NewGoldTransaction(id.ID, model.GoldKindEarn, model.AdReward, model.GoldSourceRewardAd, now)
		if err != nil {
			return err
		}
		id.GoldBalance += model.AdReward
		id.AdsWatchedToday++
		id.LastAdWatchAt = &now
		id.UpdatedAt = now
		if err := u.identities.Update(ctx, tx, &id); err != nil {
			return err
		}
		if err := u.txs.Append(ctx, tx, t); err != nil {
			return err
		}
		stats = adStats(id)
		stats.Credited = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, capErr
}

func (u *goldUC) Spend(ctx context.Context, identityID, sourceStr string) (*SpendResult, error) {
	defer logging.TraceDuration(u.log, "GoldUC.Spend")()

	source, err := model.ParseSpendSource(sourceStr)
	if err != nil {
		return nil, err
	}
	cost, _ := model.SpendCost(source)

	var res *SpendResult
	err = u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.identities.FindByID(ctx, tx, identityID)
		if err != nil {
			return err
		}
		now := u.now()
		id := model.NormalizeDailyCounters(*cur, now)

		var shopID string
		if source == model.GoldSourceBoostShop {
			if id.ShopProfileID == nil || *id.ShopProfileID == "" {
				return domain.NewError(domain.ErrNotFound, "no shop found to boost")
			}
			shopID = *id.ShopProfileID
		}

		res = &SpendResult{Source: source}
		if !id.IsPremium {
			if id.GoldBalance < cost {
				return domain.NewError(domain.ErrInsufficientBalance, "not enough gold points")
			}
			id.GoldBalance -= cost
			res.Cost = cost
		}

		switch source {
		case model.GoldSourceUnlockPhone:
			res.PhoneUnlocked = true
		case model.GoldSourceBoostShop:
			until := now.Add(model.BoostDuration)
			if err := u.profiles.SetBoost(ctx, tx, shopID, until); err != nil {
				return err
			}
			res.BoostExpiresAt = &until
		case model.GoldSourceRemoveAds:
			until := now.Add(model.AdFreeDuration)
			id.AdFreeUntil = &until
			res.AdFreeUntil = &until
		}

		id.UpdatedAt = now
		if err := u.identities.Update(ctx, tx, &id); err != nil {
			return err
		}
		if res.Cost > 0 {
			t, err := model.NewGoldTransaction(id.ID, model.GoldKindSpend, cost, source, now)
			if err != nil {
				return err
			}
			if err := u.txs.Append(ctx, tx, t); err != nil {
				return err
			}
		}
		res.Balance = id.GoldBalance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *goldUC) GetWallet(ctx context.Context, identityID string, page, limit int) (*Wallet, error) {
	defer logging.TraceDuration(u.log, "GoldUC.GetWallet")()

	if page < 1 {
		page = 1
	}
	if page > maxWalletPage {
		return nil, domain.NewError(domain.ErrValidation, "page is out of range")
	}
	switch {
	case limit <= 0:
		limit = defaultWalletLimit
	case limit > maxWalletLimit:
		limit = maxWalletLimit
	}

	cur, err := u.identities.FindByID(ctx, repository.NoTX, identityID)
	if err != nil {
		return nil, err
	}
	id := model.NormalizeDailyCounters(*cur, u.now())
	txs, total, err := u.txs.ListByIdentity(ctx, repository.NoTX, id.ID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		Balance:      id.GoldBalance,
		Ads:          adStats(id),
		Premium:      id.IsPremium,
		AdFreeUntil:  id.AdFreeUntil,
		Transactions: txs,
		Page:         page,
		Limit:        limit,
		Total:        total,
	}, nil
}
