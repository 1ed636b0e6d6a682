package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
)

var (
	_ repository.RecurringSubscriptionRepository = (*subscriptionRepo)(nil)
	_ repository.RecurringPaymentRepository      = (*recurringPaymentRepo)(nil)
)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, identity_id, plan_kind, gateway_plan_id, gateway_subscription_id, status, start_at, expires_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.RecurringSubscription, error) {
	s := &model.RecurringSubscription{}
	err := row.Scan(&s.ID, &s.IdentityID, &s.PlanKind, &s.GatewayPlanID, &s.GatewaySubscriptionID, &s.Status,
		&s.StartAt, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if mapped := mapError(err); mapped == domain.ErrNotFound {
			return nil, mapped
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) error {
	const q = `
INSERT INTO recurring_subscriptions (` + subscriptionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.IdentityID, s.PlanKind, s.GatewayPlanID, s.GatewaySubscriptionID, s.Status,
		s.StartAt, s.ExpiresAt, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *subscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) error {
	const q = `UPDATE recurring_subscriptions SET status=$2, start_at=$3, expires_at=$4, updated_at=$5 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Status, s.StartAt, s.ExpiresAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) FindByGatewayID(ctx context.Context, tx repository.Tx, gatewaySubID string) (*model.RecurringSubscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM recurring_subscriptions WHERE gateway_subscription_id=$1` + lockSuffix(tx) + `;`
	row, err := pickRow(ctx, r.pool, tx, q, gatewaySubID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) ListByIdentity(ctx context.Context, tx repository.Tx, identityID string) ([]*model.RecurringSubscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM recurring_subscriptions WHERE identity_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RecurringSubscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, mapError(rows.Err())
}

type recurringPaymentRepo struct{ pool *pgxpool.Pool }

func NewRecurringPaymentRepo(pool *pgxpool.Pool) *recurringPaymentRepo {
	return &recurringPaymentRepo{pool: pool}
}

// Insert relies on UNIQUE(subscription_id, gateway_payment_id) for idempotency.
func (r *recurringPaymentRepo) Insert(ctx context.Context, tx repository.Tx, p *model.RecurringPayment) (bool, error) {
	const q = `
INSERT INTO recurring_payments (id, identity_id, subscription_id, gateway_payment_id, amount, charged_at, status)
VALUES ($1,$2,$3,$4,$5::numeric,$6,$7)
ON CONFLICT (subscription_id, gateway_payment_id) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, q, p.ID, p.IdentityID, p.SubscriptionID, p.GatewayPaymentID, p.Amount.String(), p.ChargedAt, p.Status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *recurringPaymentRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.RecurringPayment, error) {
	const q = `
SELECT id, identity_id, subscription_id, gateway_payment_id, amount::text, charged_at, status
  FROM recurring_payments
 WHERE subscription_id=$1
 ORDER BY charged_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RecurringPayment
	for rows.Next() {
		var (
			p      model.RecurringPayment
			amount string
		)
		if err := rows.Scan(&p.ID, &p.IdentityID, &p.SubscriptionID, &p.GatewayPaymentID, &amount, &p.ChargedAt, &p.Status); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &p)
	}
	return out, mapError(rows.Err())
}
