package payment

import (
	"context"
	"fmt"
	"sync"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is an in-memory gateway for local development. It signs with fixed
// dev secrets so the checkout and webhook flows can be exercised end to end.
type NoopPaymentGateway struct {
	mu            sync.Mutex
	seq           int64
	keySecret     string
	webhookSecret string
	orders        map[string]int64 // gateway order id -> amount
}

func NewNoopPaymentGateway(keySecret, webhookSecret string) *NoopPaymentGateway {
	return &NoopPaymentGateway{
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		orders:        make(map[string]int64),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s_noop%d", prefix, g.seq)
}

func (g *NoopPaymentGateway) KeyID() (string, error) { return "rzp_test_noop", nil }

func (g *NoopPaymentGateway) PlanID(kind string) (string, error) { return "plan_noop_" + kind, nil }

func (g *NoopPaymentGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error) {
	id := g.next("order")
	g.mu.Lock()
	g.orders[id] = amount
	g.mu.Unlock()
	return id, nil
}

func (g *NoopPaymentGateway) CreateCustomer(ctx context.Context, in adapter.CustomerInput) (string, error) {
	return g.next("cust"), nil
}

func (g *NoopPaymentGateway) CreateSubscription(ctx context.Context, in adapter.SubscriptionInput) (string, error) {
	return g.next("sub"), nil
}

func (g *NoopPaymentGateway) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error {
	g.mu.Lock()
	_, known := g.orders[gatewayOrderID]
	g.mu.Unlock()
	if !known || !ValidSignature(g.keySecret, []byte(gatewayOrderID+"|"+gatewayPaymentID), signature) {
		return domain.NewError(domain.ErrVerification, "invalid payment signature")
	}
	return nil
}

func (g *NoopPaymentGateway) VerifyWebhookSignature(body []byte, signature string) error {
	if !ValidSignature(g.webhookSecret, body, signature) {
		return domain.NewError(domain.ErrValidation, "invalid webhook signature")
	}
	return nil
}
