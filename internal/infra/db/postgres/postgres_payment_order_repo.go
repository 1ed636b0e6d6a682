package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
)

var _ repository.PaymentOrderRepository = (*paymentOrderRepo)(nil)

type paymentOrderRepo struct{ pool *pgxpool.Pool }

func NewPaymentOrderRepo(pool *pgxpool.Pool) *paymentOrderRepo {
	return &paymentOrderRepo{pool: pool}
}

const paymentOrderColumns = `id, gateway_order_id, gateway_payment_id, identity_id, kind, profile_id, amount, currency, status, created_at, updated_at`

func scanPaymentOrder(row pgx.Row) (*model.PaymentOrder, error) {
	o := &model.PaymentOrder{}
	err := row.Scan(&o.ID, &o.GatewayOrderID, &o.GatewayPaymentID, &o.IdentityID, &o.Kind, &o.ProfileID,
		&o.Amount, &o.Currency, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if mapped := mapError(err); mapped == domain.ErrNotFound {
			return nil, mapped
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}

func (r *paymentOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.PaymentOrder) error {
	const q = `
INSERT INTO payment_orders (` + paymentOrderColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	_, err := execSQL(ctx, r.pool, tx, q, o.ID, o.GatewayOrderID, o.GatewayPaymentID, o.IdentityID, o.Kind, o.ProfileID,
		o.Amount, o.Currency, o.Status, o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *paymentOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentOrder, error) {
	q := `SELECT ` + paymentOrderColumns + ` FROM payment_orders WHERE id=$1` + lockSuffix(tx) + `;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPaymentOrder(row)
}

func (r *paymentOrderRepo) FindPending(ctx context.Context, tx repository.Tx, id string, kind model.OrderKind) (*model.PaymentOrder, error) {
	q := `SELECT ` + paymentOrderColumns + ` FROM payment_orders WHERE id=$1 AND kind=$2 AND status='pending'` + lockSuffix(tx) + `;`
	row, err := pickRow(ctx, r.pool, tx, q, id, kind)
	if err != nil {
		return nil, err
	}
	return scanPaymentOrder(row)
}

// UpdateStatusIfPending atomically updates status only when the current status is 'pending'.
func (r *paymentOrderRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID *string) (bool, error) {
	const q = `
UPDATE payment_orders
   SET status = $2,
       gateway_payment_id = COALESCE($3, gateway_payment_id),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(status), gatewayPaymentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentOrderRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.PaymentStatus]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM payment_orders GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.PaymentStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.PaymentStatus(status)] = n
	}
	return out, mapError(rows.Err())
}
