package api

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/infra/metrics"
	"listing-marketplace/internal/usecase"
)

type adStatsView struct {
	GoldCoins       int64 `json:"goldCoins"`
	AdsWatchedToday int   `json:"adsWatchedToday"`
	RemainingToday  int   `json:"remainingToday"`
	DailyLimit      int   `json:"dailyLimit"`
	IsPremium       bool  `json:"isPremium"`
	Credited        bool  `json:"credited"`
}

func toAdStatsView(st usecase.AdStats) adStatsView {
	return adStatsView{
		GoldCoins:       st.Balance,
		AdsWatchedToday: st.AdsWatchedToday,
		RemainingToday:  st.RemainingToday,
		DailyLimit:      st.DailyLimit,
		IsPremium:       st.Premium,
		Credited:        st.Credited,
	}
}

type spendView struct {
	GoldCoins      int64      `json:"goldCoins"`
	Spent          int64      `json:"spent"`
	PhoneUnlocked  bool       `json:"phoneUnlocked,omitempty"`
	BoostExpiresAt *time.Time `json:"boostExpiresAt,omitempty"`
	AdFreeUntil    *time.Time `json:"adFreeUntil,omitempty"`
}

type goldTxView struct {
	ID        string           `json:"id"`
	Type      model.GoldKind   `json:"type"`
	Amount    int64            `json:"amount"`
	Source    model.GoldSource `json:"source"`
	CreatedAt time.Time        `json:"createdAt"`
}

type walletView struct {
	GoldCoins    int64        `json:"goldCoins"`
	IsPremium    bool         `json:"isPremium"`
	AdFreeUntil  *time.Time   `json:"adFreeUntil,omitempty"`
	Ads          adStatsView  `json:"adStats"`
	Transactions []goldTxView `json:"transactions"`
	Page         int          `json:"page"`
	Limit        int          `json:"limit"`
	Total        int          `json:"total"`
}

func (s *Server) handleAdWatched(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Gold.CreditForAdWatched(r.Context(), mustIdentity(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if st.Credited {
		metrics.IncGoldTransaction(string(model.GoldKindEarn), string(model.GoldSourceRewardAd), model.AdReward)
	}
	writeOK(w, http.StatusOK, "ad reward recorded", toAdStatsView(*st))
}

func (s *Server) handleSpend(source model.GoldSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.deps.Gold.Spend(r.Context(), mustIdentity(r), string(source))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if res.Cost > 0 {
			metrics.IncGoldTransaction(string(model.GoldKindSpend), string(res.Source), res.Cost)
		}
		writeOK(w, http.StatusOK, "gold spent", spendView{
			GoldCoins:      res.Balance,
			Spent:          res.Cost,
			PhoneUnlocked:  res.PhoneUnlocked,
			BoostExpiresAt: res.BoostExpiresAt,
			AdFreeUntil:    res.AdFreeUntil,
		})
	}
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r, 20)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	wal, err := s.deps.Gold.GetWallet(r.Context(), mustIdentity(r), page, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	txs := make([]goldTxView, 0, len(wal.Transactions))
	for _, t := range wal.Transactions {
		txs = append(txs, goldTxView{ID: t.ID, Type: t.Kind, Amount: t.Amount, Source: t.Source, CreatedAt: t.CreatedAt})
	}
	writeOK(w, http.StatusOK, "", walletView{
		GoldCoins:    wal.Balance,
		IsPremium:    wal.Premium,
		AdFreeUntil:  wal.AdFreeUntil,
		Ads:          toAdStatsView(wal.Ads),
		Transactions: txs,
		Page:         wal.Page,
		Limit:        wal.Limit,
		Total:        wal.Total,
	})
}

// handleAdMobReward is the server-side verification callback. Reaching the daily cap
// answers 200 with success=false and the current stats so the ad network stops retrying.
//
// Only the presence of signature and key_id is checked (key_id against admob.key_ids when
// configured). The ECDSA signature over the query is not verified against the published
// AdMob keys, so this route trusts any caller that knows a key id.
func (s *Server) handleAdMobReward(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, signature, keyID := q.Get("user_id"), q.Get("signature"), q.Get("key_id")
	if userID == "" || signature == "" || keyID == "" {
		s.fail(w, r, domain.NewError(domain.ErrValidation, "user_id, signature and key_id are required"))
		return
	}
	amount, err := queryInt(r, "reward_amount", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if amount < 1 {
		s.fail(w, r, domain.NewError(domain.ErrValidation, "reward_amount must be at least 1"))
		return
	}
	if len(s.deps.AdMobKeyIDs) > 0 && !slices.Contains(s.deps.AdMobKeyIDs, keyID) {
		s.fail(w, r, domain.NewError(domain.ErrVerification, "unknown key_id"))
		return
	}
	st, err := s.deps.Gold.CreditForAdWatched(r.Context(), userID)
	if errors.Is(err, domain.ErrRateLimited) && st != nil {
		writeJSON(w, http.StatusOK, okBody{Success: false, Message: publicMessage(err), Data: toAdStatsView(*st)})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if st.Credited {
		metrics.IncGoldTransaction(string(model.GoldKindEarn), string(model.GoldSourceRewardAd), model.AdReward)
	}
	writeOK(w, http.StatusOK, "reward granted", toAdStatsView(*st))
}
