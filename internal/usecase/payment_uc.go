// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/adapter"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/logging"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// CreateOrder creates the remote order first and persists a pending order only on success.
	CreateOrder(ctx context.Context, identityID, kind string) (*CreatedOrder, error)
	// VerifyOrder checks the checkout signature and moves a pending order to a terminal status.
	VerifyOrder(ctx context.Context, in VerifyOrderInput) (*VerifiedOrder, error)
}

// CreatedOrder is what the client needs to open the gateway checkout.
type CreatedOrder struct {
	OrderID        string
	GatewayOrderID string
	Amount         int64
	Currency       string
	KeyID          string
	Kind           model.OrderKind
}

// VerifyOrderInput mirrors the checkout callback. Signature is a pointer so a missing
// signature can be told apart from a blank one.
type VerifyOrderInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        *string
	OrderID          string
	Kind             string
}

type VerifiedOrder struct {
	Order  *model.PaymentOrder
	EndAt  time.Time
	Staged bool
}

type paymentUC struct {
	identities repository.IdentityRepository
	orders     repository.PaymentOrderRepository
	grants     grantWriter
	gateway    adapter.PaymentGateway
	tm         repository.TransactionManager
	log        *zerolog.Logger
	now        func() time.Time
}

func NewPaymentUseCase(identities repository.IdentityRepository, profiles repository.ProfileRepository, orders repository.PaymentOrderRepository, gateway adapter.PaymentGateway, tm repository.TransactionManager, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{
		identities: identities,
		orders:     orders,
		grants:     grantWriter{identities: identities, profiles: profiles},
		gateway:    gateway,
		tm:         tm,
		log:        logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (u *paymentUC) WithClock(now func() time.Time) *paymentUC {
	u.now = now
	return u
}

func (u *paymentUC) CreateOrder(ctx context.Context, identityID, kindStr string) (*CreatedOrder, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.CreateOrder")()

	kind, err := model.ParseOrderKind(kindStr)
	if err != nil {
		return nil, err
	}
	amount, _ := kind.Price()
	keyID, err := u.gateway.KeyID()
	if err != nil {
		return nil, err
	}
	identity, err := u.identities.FindByID(ctx, repository.NoTX, identityID)
	if err != nil {
		return nil, err
	}

	orderID := "ord_" + ulid.Make().String()
	gatewayOrderID, err := u.gateway.CreateOrder(ctx, amount, model.Currency, orderID, map[string]string{
		"identity_id": identity.ID,
		"type":        string(kind),
	})
	if err != nil {
		return nil, err
	}

	order, err := model.NewPaymentOrder(orderID, gatewayOrderID, identity, kind)
	if err != nil {
		return nil, err
	}
	if err := u.orders.Save(ctx, repository.NoTX, order); err != nil {
		logging.With(ctx, u.log).Error().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("remote order created but local save failed")
		return nil, err
	}
	return &CreatedOrder{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrderID,
		Amount:         amount,
		Currency:       model.Currency,
		KeyID:          keyID,
		Kind:           kind,
	}, nil
}

func (u *paymentUC) VerifyOrder(ctx context.Context, in VerifyOrderInput) (*VerifiedOrder, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.VerifyOrder")()

	if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.OrderID == "" || in.Kind == "" || in.Signature == nil {
		return nil, domain.NewError(domain.ErrValidation, "missing required payment verification fields")
	}
	if strings.TrimSpace(*in.Signature) == "" {
		return nil, domain.NewError(domain.ErrValidation,
			"payment signature is empty: the checkout response must forward razorpay_signature unchanged")
	}
	kind, err := model.ParseOrderKind(in.Kind)
	if err != nil {
		return nil, err
	}

	log := logging.With(logging.WithOrderID(ctx, in.OrderID), u.log)
	var (
		out       *VerifiedOrder
		verifyErr error
	)
	err = u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		order, err := u.orders.FindPending(ctx, tx, in.OrderID, kind)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrNotFound, "order not found or already processed")
		}
		if err != nil {
			return err
		}

		sigErr := u.gateway.VerifyPaymentSignature(in.GatewayOrderID, in.GatewayPaymentID, *in.Signature)
		if errors.Is(sigErr, domain.ErrConfiguration) {
			return sigErr
		}
		if sigErr == nil && order.GatewayOrderID != in.GatewayOrderID {
			sigErr = domain.NewError(domain.ErrVerification, "payment does not belong to this order")
		}
		if sigErr != nil {
			if _, err := u.orders.UpdateStatusIfPending(ctx, tx, order.ID, model.PaymentStatusFailed, nil); err != nil {
				return err
			}
			order.Status = model.PaymentStatusFailed
			verifyErr = domain.WrapError(domain.ErrVerification, "payment verification failed", sigErr)
			return nil
		}

		paymentID := in.GatewayPaymentID
		ok, err := u.orders.UpdateStatusIfPending(ctx, tx, order.ID, model.PaymentStatusCompleted, &paymentID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewError(domain.ErrNotFound, "order not found or already processed")
		}
		order.Status = model.PaymentStatusCompleted
		order.GatewayPaymentID = &paymentID

		now := u.now()
		end := now.Add(model.SubscriptionPeriod)
		target, err := u.grants.apply(ctx, tx, order.GrantTarget(), &now, end)
		if err != nil {
			return err
		}
		_, staged := target.(model.StagedGrant)
		out = &VerifiedOrder{Order: order, EndAt: end, Staged: staged}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if verifyErr != nil {
		log.Warn().Err(verifyErr).Msg("order marked failed after signature mismatch")
		return nil, verifyErr
	}
	log.Info().Str("kind", string(kind)).Bool("staged", out.Staged).Time("end_at", out.EndAt).Msg("order completed")
	return out, nil
}
