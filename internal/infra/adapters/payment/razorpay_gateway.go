// File: internal/infra/adapters/payment/razorpay_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"listing-marketplace/internal/config"
	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*RazorpayGateway)(nil)

// RazorpayGateway implements adapter.PaymentGateway over the Razorpay REST API.
// Credentials are checked on each call, not at construction, so the service starts
// without them and reports a configuration error on first use.
type RazorpayGateway struct {
	cfg config.RazorpayConfig
	log *zerolog.Logger

	once   sync.Once
	client *http.Client
}

func NewRazorpayGateway(cfg config.RazorpayConfig, logger *zerolog.Logger) *RazorpayGateway {
	return &RazorpayGateway{cfg: cfg, log: logger}
}

// WithHTTPClient replaces the lazily built client (tests point it at httptest).
func (g *RazorpayGateway) WithHTTPClient(c *http.Client) *RazorpayGateway {
	g.once.Do(func() {})
	g.client = c
	return g
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

func (g *RazorpayGateway) httpClient() *http.Client {
	g.once.Do(func() {
		timeout := g.cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		g.client = &http.Client{Timeout: timeout}
	})
	return g.client
}

func (g *RazorpayGateway) credentials() error {
	if g.cfg.KeyID == "" || g.cfg.KeySecret == "" {
		return domain.NewError(domain.ErrConfiguration, "payment gateway keys are not configured")
	}
	return nil
}

func (g *RazorpayGateway) KeyID() (string, error) {
	if err := g.credentials(); err != nil {
		return "", err
	}
	return g.cfg.KeyID, nil
}

func (g *RazorpayGateway) PlanID(kind string) (string, error) {
	var id string
	switch strings.ToLower(kind) {
	case "service":
		id = g.cfg.PlanService
	case "shop":
		id = g.cfg.PlanShop
	}
	if id == "" {
		return "", domain.NewError(domain.ErrConfiguration, "subscription plan is not configured for "+strings.ToUpper(kind))
	}
	return id, nil
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Reason      string `json:"reason"`
	} `json:"error"`
}

// call POSTs body to path and decodes the response into out. Non-2xx responses become
// upstream gateway errors carrying the gateway's description.
func (g *RazorpayGateway) call(ctx context.Context, path string, body any, out any) error {
	if err := g.credentials(); err != nil {
		return err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.cfg.BaseURL, "/")+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)

	start := time.Now()
	resp, err := g.httpClient().Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrUpstreamGateway, "payment gateway unreachable", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.WrapError(domain.ErrUpstreamGateway, "payment gateway read failed", err)
	}
	g.log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("razorpay call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e razorpayError
		_ = json.Unmarshal(raw, &e)
		reason := e.Error.Description
		if reason == "" {
			reason = e.Error.Reason
		}
		if reason == "" {
			reason = fmt.Sprintf("http %d", resp.StatusCode)
		}
		return domain.NewError(domain.ErrUpstreamGateway, "payment gateway error: "+reason)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.WrapError(domain.ErrUpstreamGateway, "payment gateway returned malformed response", err)
	}
	return nil
}

type idResponse struct {
	ID string `json:"id"`
}

func (r idResponse) check(what string) (string, error) {
	if r.ID == "" {
		return "", domain.NewError(domain.ErrUpstreamGateway, "payment gateway returned no "+what+" id")
	}
	return r.ID, nil
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error) {
	var out idResponse
	err := g.call(ctx, "/orders", map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.check("order")
}

// CreateCustomer asks the gateway to return the existing customer for the same contact
// instead of failing (fail_existing=0).
func (g *RazorpayGateway) CreateCustomer(ctx context.Context, in adapter.CustomerInput) (string, error) {
	body := map[string]any{
		"name":          in.Name,
		"fail_existing": "0",
		"notes":         in.Notes,
	}
	if in.Email != "" {
		body["email"] = in.Email
	}
	if in.Contact != "" {
		body["contact"] = in.Contact
	}
	var out idResponse
	if err := g.call(ctx, "/customers", body, &out); err != nil {
		return "", err
	}
	return out.check("customer")
}

func (g *RazorpayGateway) CreateSubscription(ctx context.Context, in adapter.SubscriptionInput) (string, error) {
	var out idResponse
	err := g.call(ctx, "/subscriptions", map[string]any{
		"plan_id":         in.PlanID,
		"customer_id":     in.CustomerID,
		"total_count":     in.TotalCount,
		"customer_notify": 1,
		"start_at":        in.StartAt.Unix(),
		"expire_by":       in.ExpireBy.Unix(),
		"notes":           in.Notes,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.check("subscription")
}

func (g *RazorpayGateway) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error {
	if err := g.credentials(); err != nil {
		return err
	}
	if !ValidSignature(g.cfg.KeySecret, []byte(gatewayOrderID+"|"+gatewayPaymentID), signature) {
		return domain.NewError(domain.ErrVerification, "invalid payment signature")
	}
	return nil
}

func (g *RazorpayGateway) VerifyWebhookSignature(body []byte, signature string) error {
	if g.cfg.WebhookSecret == "" {
		return domain.NewError(domain.ErrConfiguration, "webhook secret is not configured")
	}
	if strings.TrimSpace(signature) == "" {
		return domain.NewError(domain.ErrValidation, "missing webhook signature")
	}
	if !ValidSignature(g.cfg.WebhookSecret, body, signature) {
		return domain.NewError(domain.ErrValidation, "invalid webhook signature")
	}
	return nil
}
