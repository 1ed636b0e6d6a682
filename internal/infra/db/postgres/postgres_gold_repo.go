package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
)

var _ repository.GoldTransactionRepository = (*goldTxRepo)(nil)

type goldTxRepo struct{ pool *pgxpool.Pool }

func NewGoldTransactionRepo(pool *pgxpool.Pool) *goldTxRepo {
	return &goldTxRepo{pool: pool}
}

func (r *goldTxRepo) Append(ctx context.Context, tx repository.Tx, t *model.GoldTransaction) error {
	const q = `INSERT INTO gold_transactions (id, identity_id, kind, amount, source, created_at) VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.IdentityID, t.Kind, t.Amount, t.Source, t.CreatedAt)
	return err
}

func (r *goldTxRepo) ListByIdentity(ctx context.Context, tx repository.Tx, identityID string, offset, limit int) ([]*model.GoldTransaction, int, error) {
	var total int
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM gold_transactions WHERE identity_id=$1;`, identityID)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	const q = `
SELECT id, identity_id, kind, amount, source, created_at
  FROM gold_transactions
 WHERE identity_id=$1
 ORDER BY created_at DESC, id DESC
 LIMIT $2 OFFSET $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, identityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.GoldTransaction
	for rows.Next() {
		t := &model.GoldTransaction{}
		if err := rows.Scan(&t.ID, &t.IdentityID, &t.Kind, &t.Amount, &t.Source, &t.CreatedAt); err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, total, mapError(rows.Err())
}

func (r *goldTxRepo) Balance(ctx context.Context, tx repository.Tx, identityID string) (int64, error) {
	const q = `
SELECT COALESCE(SUM(CASE WHEN kind='spend' THEN -amount ELSE amount END), 0)::bigint
  FROM gold_transactions
 WHERE identity_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, identityID)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
