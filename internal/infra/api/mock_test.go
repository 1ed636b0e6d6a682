package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"listing-marketplace/internal/config"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// --- use case fakes: embed the interface, override what a test needs ---

type fakeAuthUC struct {
	usecase.AuthUseCase
	RegisterFunc func(ctx context.Context, in usecase.RegisterInput) (*model.Identity, error)
	LoginFunc    func(ctx context.Context, identifier, password string) (*model.Identity, error)
	MeFunc       func(ctx context.Context, identityID string) (*model.Identity, error)
	ChangeFunc   func(ctx context.Context, identityID, current, next string) error
}

func (f *fakeAuthUC) Register(ctx context.Context, in usecase.RegisterInput) (*model.Identity, error) {
	return f.RegisterFunc(ctx, in)
}
func (f *fakeAuthUC) Login(ctx context.Context, identifier, password string) (*model.Identity, error) {
	return f.LoginFunc(ctx, identifier, password)
}
func (f *fakeAuthUC) Me(ctx context.Context, identityID string) (*model.Identity, error) {
	return f.MeFunc(ctx, identityID)
}
func (f *fakeAuthUC) ChangePassword(ctx context.Context, identityID, current, next string) error {
	return f.ChangeFunc(ctx, identityID, current, next)
}

type fakeProfileUC struct {
	usecase.ProfileUseCase
	RegisterFunc func(ctx context.Context, identityID string, kind model.ProfileKind, in usecase.ProfileInput, images []usecase.ImageUpload) (*usecase.ProfileResult, error)
	ListFunc     func(ctx context.Context, f repository.ProfileFilter, viewer model.Viewer) ([]model.PublicProfile, error)
	GetFunc      func(ctx context.Context, kind model.ProfileKind, id string, viewer model.Viewer) (*model.PublicProfile, error)
	AdminFunc    func(ctx context.Context, f repository.ProfileFilter) ([]*model.Profile, int, error)
}

func (f *fakeProfileUC) Register(ctx context.Context, identityID string, kind model.ProfileKind, in usecase.ProfileInput, images []usecase.ImageUpload) (*usecase.ProfileResult, error) {
	return f.RegisterFunc(ctx, identityID, kind, in, images)
}
func (f *fakeProfileUC) List(ctx context.Context, fl repository.ProfileFilter, viewer model.Viewer) ([]model.PublicProfile, error) {
	return f.ListFunc(ctx, fl, viewer)
}
func (f *fakeProfileUC) Get(ctx context.Context, kind model.ProfileKind, id string, viewer model.Viewer) (*model.PublicProfile, error) {
	return f.GetFunc(ctx, kind, id, viewer)
}
func (f *fakeProfileUC) AdminList(ctx context.Context, fl repository.ProfileFilter) ([]*model.Profile, int, error) {
	return f.AdminFunc(ctx, fl)
}

type fakePaymentUC struct {
	usecase.PaymentUseCase
	CreateOrderFunc func(ctx context.Context, identityID, kind string) (*usecase.CreatedOrder, error)
	VerifyOrderFunc func(ctx context.Context, in usecase.VerifyOrderInput) (*usecase.VerifiedOrder, error)
}

func (f *fakePaymentUC) CreateOrder(ctx context.Context, identityID, kind string) (*usecase.CreatedOrder, error) {
	return f.CreateOrderFunc(ctx, identityID, kind)
}
func (f *fakePaymentUC) VerifyOrder(ctx context.Context, in usecase.VerifyOrderInput) (*usecase.VerifiedOrder, error) {
	return f.VerifyOrderFunc(ctx, in)
}

type fakeWebhookUC struct {
	mu      sync.Mutex
	gotBody []byte
	gotSig  string
	result  *usecase.WebhookResult
	err     error
}

func (f *fakeWebhookUC) Ingest(ctx context.Context, body []byte, signature string) (*usecase.WebhookResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotBody, f.gotSig = body, signature
	return f.result, f.err
}

type fakeGoldUC struct {
	usecase.GoldUseCase
	CreditFunc func(ctx context.Context, identityID string) (*usecase.AdStats, error)
	WalletFunc func(ctx context.Context, identityID string, page, limit int) (*usecase.Wallet, error)
}

func (f *fakeGoldUC) CreditForAdWatched(ctx context.Context, identityID string) (*usecase.AdStats, error) {
	return f.CreditFunc(ctx, identityID)
}
func (f *fakeGoldUC) GetWallet(ctx context.Context, identityID string, page, limit int) (*usecase.Wallet, error) {
	return f.WalletFunc(ctx, identityID, page, limit)
}

type fakeReferralUC struct {
	usecase.ReferralUseCase
	ListFunc    func(ctx context.Context) ([]model.PendingWithdrawal, error)
	ProcessFunc func(ctx context.Context, identityID, action string) (*usecase.ProcessedWithdrawal, error)
	RewardFunc  func(ctx context.Context, identityID string, amount decimal.Decimal) (*model.Identity, error)
}

func (f *fakeReferralUC) ListPendingWithdrawals(ctx context.Context) ([]model.PendingWithdrawal, error) {
	return f.ListFunc(ctx)
}
func (f *fakeReferralUC) ProcessWithdrawal(ctx context.Context, identityID, action string) (*usecase.ProcessedWithdrawal, error) {
	return f.ProcessFunc(ctx, identityID, action)
}
func (f *fakeReferralUC) CreditReward(ctx context.Context, identityID string, amount decimal.Decimal) (*model.Identity, error) {
	return f.RewardFunc(ctx, identityID, amount)
}

type fakePromotionUC struct {
	usecase.PromotionUseCase
	ActiveFunc func(ctx context.Context) ([]*model.Promotion, error)
	CreateFunc func(ctx context.Context, in usecase.PromotionInput, image *usecase.ImageUpload) (*model.Promotion, error)
	UpdateFunc func(ctx context.Context, id string, in usecase.PromotionInput, image *usecase.ImageUpload) (*model.Promotion, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (f *fakePromotionUC) ListActive(ctx context.Context) ([]*model.Promotion, error) {
	return f.ActiveFunc(ctx)
}
func (f *fakePromotionUC) Create(ctx context.Context, in usecase.PromotionInput, image *usecase.ImageUpload) (*model.Promotion, error) {
	return f.CreateFunc(ctx, in, image)
}
func (f *fakePromotionUC) Update(ctx context.Context, id string, in usecase.PromotionInput, image *usecase.ImageUpload) (*model.Promotion, error) {
	return f.UpdateFunc(ctx, id, in, image)
}
func (f *fakePromotionUC) Delete(ctx context.Context, id string) error {
	return f.DeleteFunc(ctx, id)
}

type fakeHelpUC struct {
	SubmitFunc func(ctx context.Context, in usecase.ComplaintInput) (*model.Complaint, error)
	MineFunc   func(ctx context.Context, identityID string, page, limit int) ([]*model.Complaint, int, error)
}

func (f *fakeHelpUC) Submit(ctx context.Context, in usecase.ComplaintInput) (*model.Complaint, error) {
	return f.SubmitFunc(ctx, in)
}
func (f *fakeHelpUC) ListMine(ctx context.Context, identityID string, page, limit int) ([]*model.Complaint, int, error) {
	return f.MineFunc(ctx, identityID, page, limit)
}

// fakeLimiter allows the first n calls per key.
type fakeLimiter struct {
	mu    sync.Mutex
	n     int
	seen  map[string]int
	err   error
	calls int
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]int{}
	}
	f.seen[key]++
	return f.seen[key] <= f.n, nil
}

const testSecret = "test-jwt-secret-0123456789"

func newTestServer(deps Deps) *Server {
	if deps.Tokens == nil {
		deps.Tokens = NewTokenManager(testSecret, time.Hour)
	}
	return NewServer(deps, config.HTTPConfig{Addr: ":0", RateLimit: 2, RateWindow: time.Minute}, newTestLogger())
}

func bearer(t interface{ Fatalf(string, ...any) }, tm *TokenManager, id string) string {
	tok, _, err := tm.Issue(id)
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	return "Bearer " + tok
}
