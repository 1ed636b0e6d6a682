package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/infra/metrics"
	"listing-marketplace/internal/usecase"
)

type withdrawalView struct {
	Amount      string              `json:"amount"`
	Channel     model.PayoutChannel `json:"withdrawalType"`
	PayoutPhone string              `json:"withdrawalPhone"`
	RequestedAt time.Time           `json:"requestedAt"`
}

func toWithdrawalView(w *model.WithdrawalRequest) *withdrawalView {
	if w == nil {
		return nil
	}
	return &withdrawalView{
		Amount:      w.Amount.StringFixed(2),
		Channel:     w.Channel,
		PayoutPhone: w.PayoutPhone,
		RequestedAt: w.RequestedAt,
	}
}

type referralSummaryView struct {
	ReferralCode      string          `json:"referralCode"`
	ReferralBalance   string          `json:"referralBalance"`
	Threshold         string          `json:"threshold"`
	CanRefund         bool            `json:"canRefund"`
	WithdrawalRequest *withdrawalView `json:"withdrawalRequest,omitempty"`
}

type withdrawalRequest struct {
	Amount  *decimal.Decimal `json:"amount"`
	Channel string           `json:"withdrawalType" validate:"omitempty,oneof=phonepe gpay PHONEPE GPAY"`
	Phone   string           `json:"withdrawalPhone" validate:"required"`
}

type processWithdrawalRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

type rewardRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type pendingWithdrawalView struct {
	IdentityID string         `json:"userId"`
	Name       string         `json:"name"`
	Email      *string        `json:"email,omitempty"`
	Phone      *string        `json:"phoneNumber,omitempty"`
	Request    withdrawalView `json:"withdrawalRequest"`
}

func (s *Server) handleReferralSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Referral.Summary(r.Context(), mustIdentity(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", referralSummaryView{
		ReferralCode:      sum.Code,
		ReferralBalance:   sum.Balance.StringFixed(2),
		Threshold:         sum.Threshold.StringFixed(2),
		CanRefund:         sum.CanRefund,
		WithdrawalRequest: toWithdrawalView(sum.Withdrawal),
	})
}

func (s *Server) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.deps.Referral.RequestWithdrawal(r.Context(), mustIdentity(r), usecase.WithdrawalInput{
		Amount:      req.Amount,
		Channel:     req.Channel,
		PayoutPhone: req.Phone,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	metrics.IncWithdrawal("requested")
	writeOK(w, http.StatusCreated, "withdrawal request submitted", map[string]any{
		"referralBalance":   id.ReferralBalance.StringFixed(2),
		"withdrawalRequest": toWithdrawalView(id.Withdrawal),
	})
}

func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Referral.ListPendingWithdrawals(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]pendingWithdrawalView, 0, len(items))
	for _, p := range items {
		out = append(out, pendingWithdrawalView{
			IdentityID: p.IdentityID,
			Name:       p.Name,
			Email:      p.Email,
			Phone:      p.Phone,
			Request:    *toWithdrawalView(&p.Request),
		})
	}
	writeOK(w, http.StatusOK, "", out)
}

func (s *Server) handleProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req processWithdrawalRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.deps.Referral.ProcessWithdrawal(r.Context(), chi.URLParam(r, "identityID"), req.Action)
	if err != nil {
		metrics.IncAdminAction("withdrawal_"+req.Action, "error")
		s.fail(w, r, err)
		return
	}
	metrics.IncAdminAction("withdrawal_"+req.Action, "ok")
	metrics.IncWithdrawal(string(res.Action))
	msg := "withdrawal approved"
	if res.Action == model.WithdrawalReject {
		msg = "withdrawal rejected, amount returned to balance"
	}
	writeOK(w, http.StatusOK, msg, map[string]any{
		"userId":            res.Identity,
		"referralBalance":   res.Balance.StringFixed(2),
		"withdrawalRequest": toWithdrawalView(&res.Request),
	})
}

func (s *Server) handleCreditReward(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if !req.Amount.IsPositive() {
		s.fail(w, r, domain.NewError(domain.ErrValidation, "amount must be positive"))
		return
	}
	id, err := s.deps.Referral.CreditReward(r.Context(), chi.URLParam(r, "identityID"), req.Amount)
	if err != nil {
		metrics.IncAdminAction("referral_reward", "error")
		s.fail(w, r, err)
		return
	}
	metrics.IncAdminAction("referral_reward", "ok")
	writeOK(w, http.StatusOK, "reward credited", map[string]any{
		"userId":          id.ID,
		"referralBalance": id.ReferralBalance.StringFixed(2),
	})
}
