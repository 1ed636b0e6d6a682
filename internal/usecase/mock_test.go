//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/adapter"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/adapters/payment"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

// fixedClock returns a settable clock for use cases that accept WithClock.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func ptr[T any](v T) *T { return &v }

func cloneIdentity(id *model.Identity) *model.Identity {
	cp := *id
	if id.Withdrawal != nil {
		w := *id.Withdrawal
		cp.Withdrawal = &w
	}
	return &cp
}

func cloneProfile(p *model.Profile) *model.Profile {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	return &cp
}

// =============================
// Repositories
// =============================

// ---- In-memory IdentityRepository ----

type MockIdentityRepo struct {
	mu   sync.Mutex
	data map[string]*model.Identity

	UpdateFunc func(ctx context.Context, tx repository.Tx, id *model.Identity) error
	Updates    int
}

var _ repository.IdentityRepository = (*MockIdentityRepo)(nil)

func NewMockIdentityRepo() *MockIdentityRepo {
	return &MockIdentityRepo{data: map[string]*model.Identity{}}
}

// Put stores id as-is, bypassing uniqueness checks.
func (m *MockIdentityRepo) Put(id *model.Identity) *model.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id.ID] = cloneIdentity(id)
	return id
}

// Get reads the stored state directly.
func (m *MockIdentityRepo) Get(id string) *model.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[id]; ok {
		return cloneIdentity(v)
	}
	return nil
}

func (m *MockIdentityRepo) Save(ctx context.Context, tx repository.Tx, id *model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.data {
		if (id.Email != nil && v.Email != nil && *v.Email == *id.Email) || (id.Phone != nil && v.Phone != nil && *v.Phone == *id.Phone) {
			return domain.NewError(domain.ErrConflict, "user already exists")
		}
	}
	m.data[id.ID] = cloneIdentity(id)
	return nil
}

func (m *MockIdentityRepo) Update(ctx context.Context, tx repository.Tx, id *model.Identity) error {
	if m.UpdateFunc != nil {
		if err := m.UpdateFunc(ctx, tx, id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id.ID]; !ok {
		return domain.ErrNotFound
	}
	m.Updates++
	m.data[id.ID] = cloneIdentity(id)
	return nil
}

func (m *MockIdentityRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Identity, error) {
	if v := m.Get(id); v != nil {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockIdentityRepo) find(match func(*model.Identity) bool) (*model.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.data {
		if match(v) {
			return cloneIdentity(v), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockIdentityRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Identity, error) {
	return m.find(func(v *model.Identity) bool { return v.Email != nil && *v.Email == email })
}

func (m *MockIdentityRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.Identity, error) {
	return m.find(func(v *model.Identity) bool { return v.Phone != nil && *v.Phone == phone })
}

func (m *MockIdentityRepo) FindByReferralCode(ctx context.Context, tx repository.Tx, code string) (*model.Identity, error) {
	return m.find(func(v *model.Identity) bool { return v.ReferralCode != nil && *v.ReferralCode == code })
}

func (m *MockIdentityRepo) SetReferralCode(ctx context.Context, tx repository.Tx, id, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.data {
		if v.ReferralCode != nil && *v.ReferralCode == code {
			return false, domain.NewError(domain.ErrConflict, "referral code taken")
		}
	}
	v, ok := m.data[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if v.ReferralCode != nil {
		return false, nil
	}
	v.ReferralCode = &code
	return true, nil
}

func (m *MockIdentityRepo) ListPendingWithdrawals(ctx context.Context, tx repository.Tx) ([]model.PendingWithdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PendingWithdrawal
	for _, v := range m.data {
		if v.Withdrawal != nil {
			out = append(out, model.PendingWithdrawal{IdentityID: v.ID, Name: v.Name, Email: v.Email, Phone: v.Phone, Request: *v.Withdrawal})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Request.RequestedAt.After(out[j].Request.RequestedAt) })
	return out, nil
}

func (m *MockIdentityRepo) ListIDs(ctx context.Context, tx repository.Tx, after string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.data {
		if id > after {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// ---- In-memory ProfileRepository ----

type MockProfileRepo struct {
	mu   sync.Mutex
	data map[string]*model.Profile
}

var _ repository.ProfileRepository = (*MockProfileRepo)(nil)

func NewMockProfileRepo() *MockProfileRepo {
	return &MockProfileRepo{data: map[string]*model.Profile{}}
}

func (m *MockProfileRepo) Get(id string) *model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.data[id]; ok {
		return cloneProfile(p)
	}
	return nil
}

func (m *MockProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.data {
		if v.Kind == p.Kind && (v.OwnerID == p.OwnerID || (p.Phone != nil && v.Phone != nil && *v.Phone == *p.Phone)) {
			return domain.NewError(domain.ErrConflict, "profile already exists")
		}
	}
	m.data[p.ID] = cloneProfile(p)
	return nil
}

func (m *MockProfileRepo) Update(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := cloneProfile(p)
	cp.Window = cur.Window
	cp.BoostExpiresAt = cur.BoostExpiresAt
	m.data[p.ID] = cp
	return nil
}

func (m *MockProfileRepo) FindByID(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string) (*model.Profile, error) {
	if p := m.Get(id); p != nil && p.Kind == kind {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockProfileRepo) FindByOwner(ctx context.Context, tx repository.Tx, kind model.ProfileKind, ownerID string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data {
		if p.Kind == kind && p.OwnerID == ownerID {
			return cloneProfile(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockProfileRepo) UpdateWindow(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string, start *time.Time, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok || p.Kind != kind {
		return domain.ErrNotFound
	}
	if start != nil {
		s := *start
		p.Window.StartAt = &s
	}
	p.Window.EndAt = &end
	return nil
}

func (m *MockProfileRepo) SetBoost(ctx context.Context, tx repository.Tx, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.BoostExpiresAt = &until
	return nil
}

func (m *MockProfileRepo) ListListed(ctx context.Context, tx repository.Tx, f repository.ProfileFilter) ([]*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Profile
	for _, p := range m.data {
		if p.Kind != f.Kind || !p.Listed(f.Now) {
			continue
		}
		if f.City != "" && !strings.EqualFold(p.Location.City, f.City) {
			continue
		}
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockProfileRepo) ListAll(ctx context.Context, tx repository.Tx, f repository.ProfileFilter) ([]*model.Profile, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.Profile
	for _, p := range m.data {
		if p.Kind != f.Kind {
			continue
		}
		if f.City != "" && !strings.EqualFold(p.Location.City, f.City) {
			continue
		}
		all = append(all, cloneProfile(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if f.Limit <= 0 || end > total {
		end = total
	}
	return all[f.Offset:end], total, nil
}

// ---- In-memory PaymentOrderRepository ----

type MockPaymentOrderRepo struct {
	mu   sync.Mutex
	data map[string]*model.PaymentOrder

	SaveFunc func(ctx context.Context, tx repository.Tx, o *model.PaymentOrder) error
}

var _ repository.PaymentOrderRepository = (*MockPaymentOrderRepo)(nil)

func NewMockPaymentOrderRepo() *MockPaymentOrderRepo {
	return &MockPaymentOrderRepo{data: map[string]*model.PaymentOrder{}}
}

func (m *MockPaymentOrderRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *MockPaymentOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.PaymentOrder) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[o.ID]; ok {
		return domain.NewError(domain.ErrConflict, "order exists")
	}
	cp := *o
	m.data[o.ID] = &cp
	return nil
}

func (m *MockPaymentOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockPaymentOrderRepo) FindPending(ctx context.Context, tx repository.Tx, id string, kind model.OrderKind) (*model.PaymentOrder, error) {
	o, err := m.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if o.Kind != kind || o.Status != model.PaymentStatusPending {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (m *MockPaymentOrderRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[id]
	if !ok || o.Status != model.PaymentStatusPending {
		return false, nil
	}
	o.Status = status
	if gatewayPaymentID != nil {
		o.GatewayPaymentID = ptr(*gatewayPaymentID)
	}
	return true, nil
}

func (m *MockPaymentOrderRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.PaymentStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.PaymentStatus]int{}
	for _, o := range m.data {
		out[o.Status]++
	}
	return out, nil
}

// ---- In-memory recurring subscription repositories ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	data map[string]*model.RecurringSubscription // by gateway id
}

var _ repository.RecurringSubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{data: map[string]*model.RecurringSubscription{}}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[s.GatewaySubscriptionID]; ok {
		return domain.NewError(domain.ErrConflict, "subscription exists")
	}
	cp := *s
	m.data[s.GatewaySubscriptionID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[s.GatewaySubscriptionID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	m.data[s.GatewaySubscriptionID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByGatewayID(ctx context.Context, tx repository.Tx, gatewaySubID string) (*model.RecurringSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[gatewaySubID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) ListByIdentity(ctx context.Context, tx repository.Tx, identityID string) ([]*model.RecurringSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RecurringSubscription
	for _, s := range m.data {
		if s.IdentityID == identityID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type MockRecurringPaymentRepo struct {
	mu   sync.Mutex
	rows []*model.RecurringPayment
}

var _ repository.RecurringPaymentRepository = (*MockRecurringPaymentRepo)(nil)

func (m *MockRecurringPaymentRepo) Insert(ctx context.Context, tx repository.Tx, p *model.RecurringPayment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.SubscriptionID == p.SubscriptionID && r.GatewayPaymentID == p.GatewayPaymentID {
			return false, nil
		}
	}
	cp := *p
	m.rows = append(m.rows, &cp)
	return true, nil
}

func (m *MockRecurringPaymentRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.RecurringPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RecurringPayment
	for _, r := range m.rows {
		if r.SubscriptionID == subscriptionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ---- In-memory GoldTransactionRepository ----

type MockGoldTxRepo struct {
	mu   sync.Mutex
	rows []*model.GoldTransaction
}

var _ repository.GoldTransactionRepository = (*MockGoldTxRepo)(nil)

func (m *MockGoldTxRepo) Append(ctx context.Context, tx repository.Tx, t *model.GoldTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *MockGoldTxRepo) ListByIdentity(ctx context.Context, tx repository.Tx, identityID string, offset, limit int) ([]*model.GoldTransaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []*model.GoldTransaction
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].IdentityID == identityID {
			mine = append(mine, m.rows[i])
		}
	}
	total := len(mine)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return mine[offset:end], total, nil
}

func (m *MockGoldTxRepo) Balance(ctx context.Context, tx repository.Tx, identityID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, r := range m.rows {
		if r.IdentityID == identityID {
			sum += r.Signed()
		}
	}
	return sum, nil
}

// ---- In-memory PromotionRepository ----

type MockPromotionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Promotion

	SaveErr error
}

var _ repository.PromotionRepository = (*MockPromotionRepo)(nil)

func NewMockPromotionRepo() *MockPromotionRepo {
	return &MockPromotionRepo{data: map[string]*model.Promotion{}}
}

// Get reads the stored state directly.
func (m *MockPromotionRepo) Get(id string) *model.Promotion {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.data[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (m *MockPromotionRepo) Save(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.data[p.ID] = &cp
	return nil
}

func (m *MockPromotionRepo) Update(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.data[p.ID] = &cp
	return nil
}

func (m *MockPromotionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.data, id)
	return nil
}

func (m *MockPromotionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	if p := m.Get(id); p != nil {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockPromotionRepo) ListActive(ctx context.Context, tx repository.Tx, now, dayStart time.Time) ([]*model.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Promotion
	for _, p := range m.data {
		if !p.StartAt.After(now) && !p.EndAt.Before(dayStart) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPromotionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Promotion, 0, len(m.data))
	for _, p := range m.data {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- In-memory ComplaintRepository ----

type MockComplaintRepo struct {
	mu   sync.Mutex
	rows []*model.Complaint
}

var _ repository.ComplaintRepository = (*MockComplaintRepo)(nil)

func (m *MockComplaintRepo) Save(ctx context.Context, tx repository.Tx, c *model.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *MockComplaintRepo) ListByIdentity(ctx context.Context, tx repository.Tx, identityID string, offset, limit int) ([]*model.Complaint, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []*model.Complaint
	for i := len(m.rows) - 1; i >= 0; i-- {
		if c := m.rows[i]; c.IdentityID != nil && *c.IdentityID == identityID {
			mine = append(mine, c)
		}
	}
	total := len(mine)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return mine[offset:end], total, nil
}

// =============================
// Transactions
// =============================

// ---- MockTxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error

	// serial makes every transaction mutually exclusive, standing in for row locks.
	serial sync.Mutex
	Serial bool
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// NewLockingTxManager serializes transactions like SELECT ... FOR UPDATE on one row would.
func NewLockingTxManager() *MockTxManager {
	return &MockTxManager{Serial: true}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx provides a way to control transaction behavior during tests.
// By default, it runs the function immediately without a real transaction.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	if m.Serial {
		m.serial.Lock()
		defer m.serial.Unlock()
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "whsec_test"
)

type MockPaymentGateway struct {
	mu  sync.Mutex
	seq int

	Unconfigured bool

	CreateOrderFunc        func(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error)
	CreateCustomerFunc     func(ctx context.Context, in adapter.CustomerInput) (string, error)
	CreateSubscriptionFunc func(ctx context.Context, in adapter.SubscriptionInput) (string, error)

	Calls struct {
		Orders        int
		Customers     []adapter.CustomerInput
		Subscriptions []adapter.SubscriptionInput
	}
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (g *MockPaymentGateway) Name() string { return "mock" }

func (g *MockPaymentGateway) configured() error {
	if g.Unconfigured {
		return domain.NewError(domain.ErrConfiguration, "payment gateway keys are not configured")
	}
	return nil
}

func (g *MockPaymentGateway) KeyID() (string, error) {
	if err := g.configured(); err != nil {
		return "", err
	}
	return "rzp_test_key", nil
}

func (g *MockPaymentGateway) PlanID(kind string) (string, error) {
	if err := g.configured(); err != nil {
		return "", err
	}
	return "plan_" + kind, nil
}

func (g *MockPaymentGateway) next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s_%d", prefix, g.seq)
}

func (g *MockPaymentGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error) {
	g.mu.Lock()
	g.Calls.Orders++
	g.mu.Unlock()
	if g.CreateOrderFunc != nil {
		return g.CreateOrderFunc(ctx, amount, currency, receipt, notes)
	}
	return g.next("order"), nil
}

func (g *MockPaymentGateway) CreateCustomer(ctx context.Context, in adapter.CustomerInput) (string, error) {
	g.mu.Lock()
	g.Calls.Customers = append(g.Calls.Customers, in)
	g.mu.Unlock()
	if g.CreateCustomerFunc != nil {
		return g.CreateCustomerFunc(ctx, in)
	}
	return g.next("cust"), nil
}

func (g *MockPaymentGateway) CreateSubscription(ctx context.Context, in adapter.SubscriptionInput) (string, error) {
	g.mu.Lock()
	g.Calls.Subscriptions = append(g.Calls.Subscriptions, in)
	g.mu.Unlock()
	if g.CreateSubscriptionFunc != nil {
		return g.CreateSubscriptionFunc(ctx, in)
	}
	return g.next("sub"), nil
}

func (g *MockPaymentGateway) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	if err := g.configured(); err != nil {
		return err
	}
	if !payment.ValidSignature(testKeySecret, []byte(orderID+"|"+paymentID), signature) {
		return domain.NewError(domain.ErrVerification, "invalid payment signature")
	}
	return nil
}

func (g *MockPaymentGateway) VerifyWebhookSignature(body []byte, signature string) error {
	if !payment.ValidSignature(testWebhookSecret, body, signature) {
		return domain.NewError(domain.ErrValidation, "invalid webhook signature")
	}
	return nil
}

// ---- In-memory ReplayGuard ----

type MockReplayGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	Err  error
}

var _ adapter.ReplayGuard = (*MockReplayGuard)(nil)

func NewMockReplayGuard() *MockReplayGuard { return &MockReplayGuard{seen: map[string]bool{}} }

func (g *MockReplayGuard) Seen(ctx context.Context, key string) (bool, error) {
	if g.Err != nil {
		return false, g.Err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen[key], nil
}

func (g *MockReplayGuard) Remember(ctx context.Context, key string, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen[key] = true
	return nil
}

// ---- In-memory ImageStore ----

type MockImageStore struct {
	mu      sync.Mutex
	Keys    []string
	Deleted []string
	FailFor map[string]bool // by key suffix
}

var _ adapter.ImageStore = (*MockImageStore)(nil)

func (s *MockImageStore) Upload(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	for suffix := range s.FailFor {
		if strings.HasSuffix(key, suffix) {
			return "", errors.New("s3 unavailable")
		}
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.Keys = append(s.Keys, key)
	s.mu.Unlock()
	return "https://cdn.test/" + key, nil
}

func (s *MockImageStore) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, url)
	return nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
