//go:build !integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/usecase"
)

func do(h http.Handler, method, target string, body []byte, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("expected JSON body, got %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	h := newTestServer(Deps{}).Router()
	rr := do(h, http.MethodGet, "/healthz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a trace id header")
	}
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	t.Run("round trip", func(t *testing.T) {
		tok, exp, err := tm.Issue("id-1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if time.Until(exp) < 59*time.Minute {
			t.Fatalf("unexpected expiry %v", exp)
		}
		id, err := tm.Parse(tok)
		if err != nil || id != "id-1" {
			t.Fatalf("expected id-1, got %q (%v)", id, err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		old := NewTokenManager(testSecret, time.Minute)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		tok, _, err := old.Issue("id-1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if _, err := tm.Parse(tok); err == nil {
			t.Fatalf("expected expired token to be rejected")
		}
	})

	t.Run("other secret", func(t *testing.T) {
		tok, _, _ := NewTokenManager("another-secret", time.Hour).Issue("id-1")
		if _, err := tm.Parse(tok); err == nil {
			t.Fatalf("expected token from another secret to be rejected")
		}
	})

	t.Run("unsigned", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "id-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if _, err := tm.Parse(tok); err == nil {
			t.Fatalf("expected alg=none token to be rejected")
		}
	})
}

func TestRequireIdentity(t *testing.T) {
	auth := &fakeAuthUC{MeFunc: func(ctx context.Context, id string) (*model.Identity, error) {
		return &model.Identity{ID: id, Name: "Asha", ReferralBalance: decimal.Zero}, nil
	}}
	s := newTestServer(Deps{Auth: auth})
	h := s.Router()

	t.Run("no credentials -> 401", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/auth/me", nil, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if got := decodeBody(t, rr)["kind"]; got != "authentication" {
			t.Fatalf("expected kind authentication, got %v", got)
		}
	})

	t.Run("wrong scheme -> 401", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/auth/me", nil, map[string]string{"Authorization": "Basic abc"})
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("valid token -> 200", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/auth/me", nil, map[string]string{"Authorization": bearer(t, s.deps.Tokens, "id-7")})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		data := decodeBody(t, rr)["data"].(map[string]any)
		if data["id"] != "id-7" || data["referralBalance"] != "0.00" {
			t.Fatalf("unexpected body: %v", data)
		}
	})
}

func TestRegister(t *testing.T) {
	var called int
	auth := &fakeAuthUC{RegisterFunc: func(ctx context.Context, in usecase.RegisterInput) (*model.Identity, error) {
		called++
		if in.Email == "taken@example.com" {
			return nil, domain.NewError(domain.ErrConflict, "user already exists")
		}
		return &model.Identity{ID: "new-id", Name: in.Name, Email: &in.Email}, nil
	}}
	s := newTestServer(Deps{Auth: auth})
	h := s.Router()

	t.Run("missing contact -> 400 without reaching the use case", func(t *testing.T) {
		rr := do(h, http.MethodPost, "/api/auth/register", []byte(`{"name":"A","password":"secret1"}`), nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if called != 0 {
			t.Fatalf("use case must not be called on invalid input")
		}
	})

	t.Run("success issues a token", func(t *testing.T) {
		rr := do(h, http.MethodPost, "/api/auth/register", []byte(`{"name":"A","email":"a@example.com","password":"secret1"}`), nil)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		data := decodeBody(t, rr)["data"].(map[string]any)
		id, err := s.deps.Tokens.Parse(data["token"].(string))
		if err != nil || id != "new-id" {
			t.Fatalf("expected token for new-id, got %q (%v)", id, err)
		}
	})

	t.Run("conflict -> 409", func(t *testing.T) {
		rr := do(h, http.MethodPost, "/api/auth/register", []byte(`{"name":"A","email":"taken@example.com","password":"secret1"}`), nil)
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rr.Code)
		}
	})
}

func TestRateLimit_AuthGroup(t *testing.T) {
	auth := &fakeAuthUC{LoginFunc: func(ctx context.Context, identifier, password string) (*model.Identity, error) {
		return nil, domain.NewError(domain.ErrAuthentication, "invalid credentials")
	}}
	lim := &fakeLimiter{n: 2}
	h := newTestServer(Deps{Auth: auth, Limiter: lim}).Router()

	body := []byte(`{"identifier":"a@example.com","password":"x"}`)
	for i := 0; i < 2; i++ {
		if rr := do(h, http.MethodPost, "/api/auth/login", body, nil); rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rr.Code)
		}
	}
	rr := do(h, http.MethodPost, "/api/auth/login", body, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}

	t.Run("limiter failure lets requests through", func(t *testing.T) {
		lim := &fakeLimiter{err: errors.New("redis down")}
		h := newTestServer(Deps{Auth: auth, Limiter: lim}).Router()
		if rr := do(h, http.MethodPost, "/api/auth/login", body, nil); rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}

func TestVerifyOrder(t *testing.T) {
	var got usecase.VerifyOrderInput
	pay := &fakePaymentUC{VerifyOrderFunc: func(ctx context.Context, in usecase.VerifyOrderInput) (*usecase.VerifiedOrder, error) {
		got = in
		if in.Signature == nil {
			return nil, domain.NewError(domain.ErrValidation, "missing payment details")
		}
		if *in.Signature != "good" {
			return nil, domain.NewError(domain.ErrVerification, "payment verification failed")
		}
		end := time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)
		return &usecase.VerifiedOrder{
			Order:  &model.PaymentOrder{ID: in.OrderID, Kind: model.OrderKindShopListing, Status: model.PaymentStatusCompleted, Amount: 2500, Currency: model.Currency},
			EndAt:  end,
			Staged: true,
		}, nil
	}}
	h := newTestServer(Deps{Payments: pay}).Router()

	t.Run("no bearer token needed", func(t *testing.T) {
		body := []byte(`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"good","type":"shop_listing","orderId":"ord_1"}`)
		rr := do(h, http.MethodPost, "/api/payments/verify", body, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if got.GatewayOrderID != "order_1" || got.GatewayPaymentID != "pay_1" || got.OrderID != "ord_1" {
			t.Fatalf("unexpected input: %+v", got)
		}
		data := decodeBody(t, rr)["data"].(map[string]any)
		if data["pendingProfile"] != true {
			t.Fatalf("expected staged flag, got %v", data)
		}
	})

	t.Run("missing signature reaches use case as nil", func(t *testing.T) {
		body := []byte(`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","orderId":"ord_1"}`)
		rr := do(h, http.MethodPost, "/api/payments/verify", body, nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if got.Signature != nil {
			t.Fatalf("expected nil signature")
		}
	})

	t.Run("mismatch -> 400 verification", func(t *testing.T) {
		body := []byte(`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"bad","orderId":"ord_1"}`)
		rr := do(h, http.MethodPost, "/api/payments/verify", body, nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if k := decodeBody(t, rr)["kind"]; k != "verification" {
			t.Fatalf("expected verification kind, got %v", k)
		}
	})
}

func TestCreateOrder_RequiresIdentity(t *testing.T) {
	var owner string
	pay := &fakePaymentUC{CreateOrderFunc: func(ctx context.Context, identityID, kind string) (*usecase.CreatedOrder, error) {
		owner = identityID
		return &usecase.CreatedOrder{OrderID: "ord_1", GatewayOrderID: "order_1", Amount: 1000, Currency: "INR", KeyID: "rzp_test", Kind: model.OrderKindServiceListing}, nil
	}}
	s := newTestServer(Deps{Payments: pay})
	h := s.Router()

	if rr := do(h, http.MethodPost, "/api/payments/create-order", []byte(`{"type":"service_listing"}`), nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	rr := do(h, http.MethodPost, "/api/payments/create-order", []byte(`{"type":"service_listing"}`),
		map[string]string{"Authorization": bearer(t, s.deps.Tokens, "id-3")})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if owner != "id-3" {
		t.Fatalf("expected order for id-3, got %q", owner)
	}
}

func TestWebhook_PassesRawBodyAndSignature(t *testing.T) {
	wh := &fakeWebhookUC{result: &usecase.WebhookResult{Event: "subscription.charged", Outcome: usecase.OutcomeApplied}}
	h := newTestServer(Deps{Webhooks: wh}).Router()

	raw := []byte(`{"event":"subscription.charged",  "payload":{}}`)
	rr := do(h, http.MethodPost, "/api/webhooks/razorpay", raw, map[string]string{"X-Razorpay-Signature": "sig"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !bytes.Equal(wh.gotBody, raw) || wh.gotSig != "sig" {
		t.Fatalf("body or signature altered: %q %q", wh.gotBody, wh.gotSig)
	}

	t.Run("bad signature -> 400", func(t *testing.T) {
		wh := &fakeWebhookUC{err: domain.NewError(domain.ErrVerification, "invalid webhook signature")}
		h := newTestServer(Deps{Webhooks: wh}).Router()
		if rr := do(h, http.MethodPost, "/api/webhooks/razorpay", raw, nil); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("storage failure -> 500 so the gateway retries", func(t *testing.T) {
		wh := &fakeWebhookUC{err: errors.New("pq: connection reset")}
		h := newTestServer(Deps{Webhooks: wh}).Router()
		rr := do(h, http.MethodPost, "/api/webhooks/razorpay", raw, nil)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
		if strings.Contains(rr.Body.String(), "pq:") {
			t.Fatalf("driver error leaked: %s", rr.Body.String())
		}
	})
}

func TestListProfiles(t *testing.T) {
	var gotF repository.ProfileFilter
	var gotV model.Viewer
	prof := &fakeProfileUC{ListFunc: func(ctx context.Context, f repository.ProfileFilter, v model.Viewer) ([]model.PublicProfile, error) {
		gotF, gotV = f, v
		return []model.PublicProfile{{ID: "p1", Kind: f.Kind}}, nil
	}}
	s := newTestServer(Deps{Profiles: prof})
	h := s.Router()

	t.Run("guest with filters and paging", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/shops?city=Pune&page=3&limit=10", nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if gotF.Kind != model.ProfileKindShop || gotF.City != "Pune" || gotF.Offset != 20 || gotF.Limit != 10 {
			t.Fatalf("unexpected filter: %+v", gotF)
		}
		if gotV.Authenticated {
			t.Fatalf("expected guest viewer")
		}
	})

	t.Run("invalid token is treated as guest", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/providers", nil, map[string]string{"Authorization": "Bearer junk"})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if gotV.Authenticated || gotF.Kind != model.ProfileKindService {
			t.Fatalf("unexpected viewer/filter: %+v %+v", gotV, gotF)
		}
	})

	t.Run("authenticated viewer", func(t *testing.T) {
		do(h, http.MethodGet, "/api/providers", nil, map[string]string{"Authorization": bearer(t, s.deps.Tokens, "id-9")})
		if !gotV.Authenticated || gotV.IdentityID != "id-9" {
			t.Fatalf("expected authenticated viewer, got %+v", gotV)
		}
	})

	t.Run("non-numeric page -> 400", func(t *testing.T) {
		if rr := do(h, http.MethodGet, "/api/shops?page=abc", nil, nil); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("huge page -> 400", func(t *testing.T) {
		if rr := do(h, http.MethodGet, "/api/shops?page=922337203685477580", nil, nil); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func TestRegisterShop_RejectsNonImageUpload(t *testing.T) {
	var called bool
	prof := &fakeProfileUC{RegisterFunc: func(ctx context.Context, identityID string, kind model.ProfileKind, in usecase.ProfileInput, images []usecase.ImageUpload) (*usecase.ProfileResult, error) {
		called = true
		return nil, nil
	}}
	s := newTestServer(Deps{Profiles: prof})

	// --- Arrange ---
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Corner Store")
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="images"; filename="notes.txt"`)
	hdr.Set("Content-Type", "text/plain")
	part, _ := mw.CreatePart(hdr)
	_, _ = part.Write([]byte("hello"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register-shop", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, s.deps.Tokens, "id-1"))
	rr := httptest.NewRecorder()

	// --- Act ---
	s.Router().ServeHTTP(rr, req)

	// --- Assert ---
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if called {
		t.Fatalf("use case must not be called")
	}
}

func TestRegisterShop_MultipartFields(t *testing.T) {
	var got usecase.ProfileInput
	var gotImages int
	prof := &fakeProfileUC{RegisterFunc: func(ctx context.Context, identityID string, kind model.ProfileKind, in usecase.ProfileInput, images []usecase.ImageUpload) (*usecase.ProfileResult, error) {
		got, gotImages = in, len(images)
		p := &model.Profile{ID: "p1", Kind: kind, OwnerID: identityID, Name: in.Name, Location: in.Location, Status: model.ProfileStatusEnabled}
		return &usecase.ProfileResult{Profile: p}, nil
	}}
	s := newTestServer(Deps{Profiles: prof})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Corner Store")
	_ = mw.WriteField("city", "Pune")
	_ = mw.WriteField("pincode", "411001")
	_ = mw.WriteField("openingHours", `{"monday":{"open":"09:00","close":"18:00"}}`)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="images"; filename="front.png"`)
	hdr.Set("Content-Type", "image/png")
	part, _ := mw.CreatePart(hdr)
	_, _ = part.Write([]byte{0x89, 'P', 'N', 'G'})
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register-shop", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, s.deps.Tokens, "id-1"))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Name != "Corner Store" || got.Location.City != "Pune" || got.OpeningHours["monday"].Open != "09:00" {
		t.Fatalf("unexpected input: %+v", got)
	}
	if gotImages != 1 {
		t.Fatalf("expected 1 image, got %d", gotImages)
	}
}

func TestAdMobReward(t *testing.T) {
	capped := false
	gold := &fakeGoldUC{CreditFunc: func(ctx context.Context, id string) (*usecase.AdStats, error) {
		if capped {
			return &usecase.AdStats{AdsWatchedToday: 20, DailyLimit: 20}, domain.NewError(domain.ErrRateLimited, "daily ad limit reached, come back tomorrow")
		}
		return &usecase.AdStats{Balance: 1, AdsWatchedToday: 1, RemainingToday: 19, DailyLimit: 20, Credited: true}, nil
	}}
	h := newTestServer(Deps{Gold: gold, AdMobKeyIDs: []string{"k1"}}).Router()

	cases := []struct {
		name   string
		query  string
		status int
	}{
		{"missing signature", "user_id=u1&reward_amount=1&key_id=k1", http.StatusBadRequest},
		{"zero reward", "user_id=u1&reward_amount=0&signature=s&key_id=k1", http.StatusBadRequest},
		{"unknown key", "user_id=u1&reward_amount=1&signature=s&key_id=k2", http.StatusBadRequest},
		{"valid", "user_id=u1&reward_amount=1&signature=s&key_id=k1", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(h, http.MethodGet, "/api/admob/reward?"+tc.query, nil, nil)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}

	t.Run("daily cap answers 200 without success", func(t *testing.T) {
		capped = true
		rr := do(h, http.MethodGet, "/api/admob/reward?user_id=u1&reward_amount=1&signature=s&key_id=k1", nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		body := decodeBody(t, rr)
		if body["success"] != false {
			t.Fatalf("expected success=false")
		}
		data, ok := body["data"].(map[string]any)
		if !ok || data["remainingToday"] != float64(0) || data["adsWatchedToday"] != float64(20) {
			t.Fatalf("expected capped stats in data, got %v", body["data"])
		}
	})
}

func TestAdminRoutes(t *testing.T) {
	ref := &fakeReferralUC{
		ListFunc: func(ctx context.Context) ([]model.PendingWithdrawal, error) {
			return []model.PendingWithdrawal{{IdentityID: "u1", Name: "A", Request: model.WithdrawalRequest{Amount: decimal.NewFromInt(15), Channel: model.PayoutChannelGPay, PayoutPhone: "9876543210"}}}, nil
		},
		ProcessFunc: func(ctx context.Context, id, action string) (*usecase.ProcessedWithdrawal, error) {
			return &usecase.ProcessedWithdrawal{Action: model.WithdrawalAction(action), Identity: id, Balance: decimal.NewFromInt(15)}, nil
		},
	}

	t.Run("admin disabled -> 403", func(t *testing.T) {
		h := newTestServer(Deps{Referral: ref}).Router()
		rr := do(h, http.MethodGet, "/api/admin/referral/withdrawals", nil, map[string]string{"X-Admin-Key": "anything"})
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})

	h := newTestServer(Deps{Referral: ref, AdminAPIKey: "admin-key"}).Router()

	t.Run("missing key -> 401", func(t *testing.T) {
		if rr := do(h, http.MethodGet, "/api/admin/referral/withdrawals", nil, nil); rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("wrong key -> 403", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/admin/referral/withdrawals", nil, map[string]string{"X-Admin-Key": "nope"})
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})

	t.Run("list with key", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/admin/referral/withdrawals", nil, map[string]string{"Authorization": "Bearer admin-key"})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		items := decodeBody(t, rr)["data"].([]any)
		req := items[0].(map[string]any)["withdrawalRequest"].(map[string]any)
		if req["amount"] != "15.00" || req["withdrawalType"] != "gpay" {
			t.Fatalf("unexpected item: %v", req)
		}
	})

	t.Run("invalid action -> 400", func(t *testing.T) {
		rr := do(h, http.MethodPatch, "/api/admin/referral/withdrawals/u1", []byte(`{"action":"maybe"}`), map[string]string{"X-Admin-Key": "admin-key"})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("approve", func(t *testing.T) {
		rr := do(h, http.MethodPatch, "/api/admin/referral/withdrawals/u1", []byte(`{"action":"approve"}`), map[string]string{"X-Admin-Key": "admin-key"})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if msg := decodeBody(t, rr)["message"]; msg != "withdrawal approved" {
			t.Fatalf("unexpected message %v", msg)
		}
	})
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), TraceID(), Recover(newTestLogger()))
	rr := do(h, http.MethodGet, "/", nil, nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "boom") {
		t.Fatalf("panic value leaked: %s", rr.Body.String())
	}
}
