package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/logging"
)

// Compile-time check
var _ ReferralUseCase = (*referralUC)(nil)

type ReferralUseCase interface {
	Summary(ctx context.Context, identityID string) (*ReferralSummary, error)
	RequestWithdrawal(ctx context.Context, identityID string, in WithdrawalInput) (*model.Identity, error)
	ProcessWithdrawal(ctx context.Context, identityID, action string) (*ProcessedWithdrawal, error)
	ListPendingWithdrawals(ctx context.Context) ([]model.PendingWithdrawal, error)
	// CreditReward adds a referral reward. The trigger lives outside this ledger.
	CreditReward(ctx context.Context, identityID string, amount decimal.Decimal) (*model.Identity, error)
}

type ReferralSummary struct {
	Code       string
	Balance    decimal.Decimal
	Threshold  decimal.Decimal
	CanRefund  bool
	Withdrawal *model.WithdrawalRequest
}

// WithdrawalInput: a nil Amount requests the full balance.
type WithdrawalInput struct {
	Amount      *decimal.Decimal
	Channel     string
	PayoutPhone string
}

type ProcessedWithdrawal struct {
	Action   model.WithdrawalAction
	Request  model.WithdrawalRequest
	Balance  decimal.Decimal
	Identity string
}

const referralCodeAttempts = 5

type referralUC struct {
	identities repository.IdentityRepository
	tm         repository.TransactionManager
	log        *zerolog.Logger
	now        func() time.Time
	newCode    func() (string, error)
}

func NewReferralUseCase(identities repository.IdentityRepository, tm repository.TransactionManager, logger *zerolog.Logger) *referralUC {
	return &referralUC{identities: identities, tm: tm, log: logger, now: time.Now, newCode: model.NewReferralCode}
}

// WithClock replaces the time source.
func (u *referralUC) WithClock(now func() time.Time) *referralUC {
	u.now = now
	return u
}

// Summary lazily assigns a referral code, retrying on collisions.
func (u *referralUC) Summary(ctx context.Context, identityID string) (*ReferralSummary, error) {
	defer logging.TraceDuration(u.log, "ReferralUC.Summary")()

	id, err := u.identities.FindByID(ctx, repository.NoTX, identityID)
	if err != nil {
		return nil, err
	}
	for attempt := 0; (id.ReferralCode == nil || *id.ReferralCode == "") && attempt < referralCodeAttempts; attempt++ {
		code, err := u.newCode()
		if err != nil {
			return nil, err
		}
		ok, err := u.identities.SetReferralCode(ctx, repository.NoTX, id.ID, code)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			// someone else assigned one first
			if id, err = u.identities.FindByID(ctx, repository.NoTX, identityID); err != nil {
				return nil, err
			}
			continue
		}
		id.ReferralCode = &code
	}
	if id.ReferralCode == nil {
		return nil, errors.New("could not allocate a unique referral code")
	}
	return &ReferralSummary{
		Code:       *id.ReferralCode,
		Balance:    id.ReferralBalance,
		Threshold:  model.WithdrawalThreshold,
		CanRefund:  id.Withdrawal == nil && id.ReferralBalance.GreaterThanOrEqual(model.WithdrawalThreshold),
		Withdrawal: id.Withdrawal,
	}, nil
}

// RequestWithdrawal debits the amount immediately so pending funds cannot be requested twice.
func (u *referralUC) RequestWithdrawal(ctx context.Context, identityID string, in WithdrawalInput) (*model.Identity, error) {
	defer logging.TraceDuration(u.log, "ReferralUC.RequestWithdrawal")()

	channel, err := model.ParsePayoutChannel(in.Channel)
	if err != nil {
		return nil, err
	}
	phone, err := model.NormalizePayoutPhone(in.PayoutPhone)
	if err != nil {
		return nil, err
	}
	if in.Amount != nil {
		if err := model.CheckMoneyPrecision(*in.Amount); err != nil {
			return nil, err
		}
	}

	var out *model.Identity
	err = u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		id, err := u.identities.FindByID(ctx, tx, identityID)
		if err != nil {
			return err
		}
		if id.Withdrawal != nil {
			return domain.NewError(domain.ErrValidation, "a withdrawal request is already pending")
		}
		if id.ReferralBalance.LessThan(model.WithdrawalThreshold) {
			return domain.NewError(domain.ErrValidation, "minimum balance of ₹10 is required to withdraw")
		}
		amount := id.ReferralBalance
		if in.Amount != nil {
			amount = *in.Amount
			if amount.LessThan(model.WithdrawalThreshold) || amount.GreaterThan(id.ReferralBalance) {
				return domain.NewError(domain.ErrValidation, "amount must be between ₹10 and your balance")
			}
		}
		now := u.now()
		id.ReferralBalance = id.ReferralBalance.Sub(amount)
		id.Withdrawal = &model.WithdrawalRequest{
			Amount:      amount,
			Channel:     channel,
			PayoutPhone: phone,
			RequestedAt: now,
		}
		id.UpdatedAt = now
		if err := u.identities.Update(ctx, tx, id); err != nil {
			return err
		}
		out = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("amount", out.Withdrawal.Amount.StringFixed(2)).Str("channel", string(channel)).
		Str("payout_phone", logging.Redact(out.Withdrawal.PayoutPhone, false)).Msg("withdrawal requested")
	return out, nil
}

// ProcessWithdrawal clears the pending request; reject refunds the debited amount.
func (u *referralUC) ProcessWithdrawal(ctx context.Context, identityID, actionStr string) (*ProcessedWithdrawal, error) {
	defer logging.TraceDuration(u.log, "ReferralUC.ProcessWithdrawal")()

	action, err := model.ParseWithdrawalAction(actionStr)
	if err != nil {
		return nil, err
	}
	var out *ProcessedWithdrawal
	err = u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		id, err := u.identities.FindByID(ctx, tx, identityID)
		if err != nil {
			return err
		}
		if id.Withdrawal == nil {
			return domain.NewError(domain.ErrValidation, "no pending withdrawal request")
		}
		req := *id.Withdrawal
		if action == model.WithdrawalReject {
			id.ReferralBalance = id.ReferralBalance.Add(req.Amount)
		}
		id.Withdrawal = nil
		id.UpdatedAt = u.now()
		if err := u.identities.Update(ctx, tx, id); err != nil {
			return err
		}
		out = &ProcessedWithdrawal{Action: action, Request: req, Balance: id.ReferralBalance, Identity: id.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *referralUC) ListPendingWithdrawals(ctx context.Context) ([]model.PendingWithdrawal, error) {
	defer logging.TraceDuration(u.log, "ReferralUC.ListPendingWithdrawals")()
	return u.identities.ListPendingWithdrawals(ctx, repository.NoTX)
}

func (u *referralUC) CreditReward(ctx context.Context, identityID string, amount decimal.Decimal) (*model.Identity, error) {
	defer logging.TraceDuration(u.log, "ReferralUC.CreditReward")()

	if !amount.IsPositive() {
		return nil, domain.NewError(domain.ErrValidation, "reward amount must be positive")
	}
	if err := model.CheckMoneyPrecision(amount); err != nil {
		return nil, err
	}
	var out *model.Identity
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		id, err := u.identities.FindByID(ctx, tx, identityID)
		if err != nil {
			return err
		}
		id.ReferralBalance = id.ReferralBalance.Add(amount)
		id.UpdatedAt = u.now()
		if err := u.identities.Update(ctx, tx, id); err != nil {
			return err
		}
		out = id
		return nil
	})
	return out, err
}
