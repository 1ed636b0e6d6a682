package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/infra/metrics"
	"listing-marketplace/internal/usecase"
)

const maxWebhookBody = 1 << 20

type createOrderRequest struct {
	Type string `json:"type" validate:"required"`
}

type createdOrderView struct {
	OrderID         string          `json:"orderId"`
	RazorpayOrderID string          `json:"razorpayOrderId"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	KeyID           string          `json:"keyId"`
	Type            model.OrderKind `json:"type"`
}

// verifyRequest mirrors the checkout callback. A missing signature decodes to nil.
type verifyRequest struct {
	RazorpayOrderID   string  `json:"razorpay_order_id"`
	RazorpayPaymentID string  `json:"razorpay_payment_id"`
	RazorpaySignature *string `json:"razorpay_signature"`
	Type              string  `json:"type"`
	OrderID           string  `json:"orderId"`
}

type verifiedOrderView struct {
	OrderID         string              `json:"orderId"`
	Status          model.PaymentStatus `json:"status"`
	Type            model.OrderKind     `json:"type"`
	SubscriptionEnd time.Time           `json:"subscriptionEndDate"`
	Staged          bool                `json:"pendingProfile"`
}

type subscriptionRequest struct {
	PlanType string `json:"plan_type" validate:"required"`
	UserID   string `json:"user_id"`
}

type subscriptionView struct {
	ID                     string                   `json:"id"`
	PlanType               model.ProfileKind        `json:"planType"`
	Status                 model.SubscriptionStatus `json:"status"`
	RazorpaySubscriptionID string                   `json:"razorpaySubscriptionId"`
	StartAt                *time.Time               `json:"startAt,omitempty"`
	ExpiresAt              *time.Time               `json:"expiresAt,omitempty"`
	CreatedAt              time.Time                `json:"createdAt"`
}

func toSubscriptionView(sub *model.RecurringSubscription) subscriptionView {
	return subscriptionView{
		ID:                     sub.ID,
		PlanType:               sub.PlanKind,
		Status:                 sub.Status,
		RazorpaySubscriptionID: sub.GatewaySubscriptionID,
		StartAt:                sub.StartAt,
		ExpiresAt:              sub.ExpiresAt,
		CreatedAt:              sub.CreatedAt,
	}
}

// orderKindLabel keeps metric label values bounded.
func orderKindLabel(raw string) string {
	if k, err := model.ParseOrderKind(raw); err == nil {
		return string(k)
	}
	return "unknown"
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.deps.Payments.CreateOrder(r.Context(), mustIdentity(r), req.Type)
	if err != nil {
		metrics.IncPaymentOrder(orderKindLabel(req.Type), "create_failed")
		s.fail(w, r, err)
		return
	}
	metrics.IncPaymentOrder(string(res.Kind), string(model.PaymentStatusPending))
	writeOK(w, http.StatusCreated, "order created", createdOrderView{
		OrderID:         res.OrderID,
		RazorpayOrderID: res.GatewayOrderID,
		Amount:          res.Amount,
		Currency:        res.Currency,
		KeyID:           res.KeyID,
		Type:            res.Kind,
	})
}

// verifyReason classifies a failed verification for the verify metrics.
func verifyReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "missing_fields"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrVerification):
		return "signature_mismatch"
	}
	return "error"
}

func (s *Server) handleVerifyOrder(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	start := time.Now()
	res, err := s.deps.Payments.VerifyOrder(r.Context(), usecase.VerifyOrderInput{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
		OrderID:          req.OrderID,
		Kind:             req.Type,
	})
	if err != nil {
		reason := verifyReason(err)
		if req.RazorpaySignature != nil && *req.RazorpaySignature == "" {
			reason = "blank_signature"
		}
		metrics.PaymentVerifyRequests.WithLabelValues("fail", reason).Inc()
		metrics.PaymentVerifyDuration.WithLabelValues("fail").Observe(time.Since(start).Seconds())
		if reason == "signature_mismatch" {
			metrics.IncPaymentOrder(orderKindLabel(req.Type), string(model.PaymentStatusFailed))
		}
		s.fail(w, r, err)
		return
	}
	metrics.PaymentVerifyRequests.WithLabelValues("ok", "").Inc()
	metrics.PaymentVerifyDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	metrics.IncPaymentOrder(string(res.Order.Kind), string(model.PaymentStatusCompleted))
	metrics.AddPaymentRevenue(res.Order.Currency, "order", res.Order.Amount)

	msg := "payment verified, listing is active"
	if res.Staged {
		msg = "payment verified, subscription applies once the profile is registered"
	}
	writeOK(w, http.StatusOK, msg, verifiedOrderView{
		OrderID:         res.Order.ID,
		Status:          res.Order.Status,
		Type:            res.Order.Kind,
		SubscriptionEnd: res.EndAt,
		Staged:          res.Staged,
	})
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sub, err := s.deps.Subscriptions.CreateSubscription(r.Context(), mustIdentity(r), req.UserID, req.PlanType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	metrics.IncSubscriptionTransition(string(sub.PlanKind), string(sub.Status))
	writeOK(w, http.StatusCreated, "subscription created", toSubscriptionView(sub))
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.deps.Subscriptions.ListByIdentity(r.Context(), mustIdentity(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]subscriptionView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriptionView(sub))
	}
	writeOK(w, http.StatusOK, "", out)
}

// handleWebhook needs the raw body: the signature covers the exact bytes sent.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		metrics.IncWebhookEvent("unknown", "rejected")
		s.fail(w, r, domain.NewError(domain.ErrValidation, "unreadable webhook body"))
		return
	}
	res, err := s.deps.Webhooks.Ingest(r.Context(), body, r.Header.Get("X-Razorpay-Signature"))
	if err != nil {
		event := "unknown"
		if res != nil && res.Event != "" {
			event = res.Event
		}
		metrics.IncWebhookEvent(event, "rejected")
		s.fail(w, r, err)
		return
	}
	metrics.IncWebhookEvent(res.Event, string(res.Outcome))
	writeOK(w, http.StatusOK, "", map[string]string{"status": "ok", "outcome": string(res.Outcome)})
}
