package adapter

import (
	"context"
	"time"
)

// CustomerInput is what the gateway needs to create a customer.
type CustomerInput struct {
	Name    string
	Email   string
	Contact string
	Notes   map[string]string
}

// SubscriptionInput requests a recurring mandate.
type SubscriptionInput struct {
	PlanID     string
	CustomerID string
	TotalCount int
	StartAt    time.Time
	ExpireBy   time.Time
	Notes      map[string]string
}

// PaymentGateway is the hex port for the payment provider. Implementations return
// domain.ErrConfiguration when credentials are missing and domain.ErrUpstreamGateway
// for remote failures.
type PaymentGateway interface {
	Name() string
	// KeyID is the public key the client checkout is opened with.
	KeyID() (string, error)
	// PlanID returns the configured recurring plan for a plan kind ("service" or "shop").
	PlanID(kind string) (string, error)

	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (gatewayOrderID string, err error)
	CreateCustomer(ctx context.Context, in CustomerInput) (customerID string, err error)
	CreateSubscription(ctx context.Context, in SubscriptionInput) (gatewaySubID string, err error)

	// VerifyPaymentSignature checks the checkout callback signature over "order|payment".
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error
	// VerifyWebhookSignature checks the webhook header signature over the exact raw body.
	VerifyWebhookSignature(body []byte, signature string) error
}
