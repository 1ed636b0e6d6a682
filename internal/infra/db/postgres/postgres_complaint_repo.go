package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
)

var _ repository.ComplaintRepository = (*complaintRepo)(nil)

type complaintRepo struct{ pool *pgxpool.Pool }

func NewComplaintRepo(pool *pgxpool.Pool) *complaintRepo {
	return &complaintRepo{pool: pool}
}

func (r *complaintRepo) Save(ctx context.Context, tx repository.Tx, c *model.Complaint) error {
	const q = `
INSERT INTO complaints (id, name, email, phone, subject, message, identity_id, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Name, c.Email, c.Phone, c.Subject, c.Message,
		c.IdentityID, string(c.Status), c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *complaintRepo) ListByIdentity(ctx context.Context, tx repository.Tx, identityID string, offset, limit int) ([]*model.Complaint, int, error) {
	var total int
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM complaints WHERE identity_id=$1;`, identityID)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	const q = `
SELECT id, name, email, phone, subject, message, identity_id, status, created_at, updated_at
  FROM complaints
 WHERE identity_id=$1
 ORDER BY created_at DESC, id DESC
 LIMIT $2 OFFSET $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, identityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Complaint
	for rows.Next() {
		c := &model.Complaint{}
		var status string
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Subject, &c.Message,
			&c.IdentityID, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		c.Status = model.ComplaintStatus(status)
		out = append(out, c)
	}
	return out, total, mapError(rows.Err())
}
