package repository

import (
	"context"

	"listing-marketplace/internal/domain/model"
)

// -----------------------------
// Recurring subscriptions
// -----------------------------

type RecurringSubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.RecurringSubscription) error
	Update(ctx context.Context, tx Tx, s *model.RecurringSubscription) error
	FindByGatewayID(ctx context.Context, tx Tx, gatewaySubID string) (*model.RecurringSubscription, error)
	ListByIdentity(ctx context.Context, tx Tx, identityID string) ([]*model.RecurringSubscription, error)
}

type RecurringPaymentRepository interface {
	// Insert is a no-op on a duplicate (subscription, gateway payment id) and reports
	// whether a row was written.
	Insert(ctx context.Context, tx Tx, p *model.RecurringPayment) (bool, error)
	ListBySubscription(ctx context.Context, tx Tx, subscriptionID string) ([]*model.RecurringPayment, error)
}
