package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
)

var _ repository.PromotionRepository = (*promotionRepo)(nil)

type promotionRepo struct{ pool *pgxpool.Pool }

func NewPromotionRepo(pool *pgxpool.Pool) *promotionRepo {
	return &promotionRepo{pool: pool}
}

const promotionColumns = `id, title, description, start_at, end_at, image_url, cta_type, cta_value, cta_label, cta_message, created_at, updated_at`

func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	p := &model.Promotion{}
	var cta *string
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.StartAt, &p.EndAt, &p.ImageURL,
		&cta, &p.CTAValue, &p.CTALabel, &p.CTAMessage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if mapped := mapError(err); mapped == domain.ErrNotFound {
			return nil, mapped
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if cta != nil {
		t := model.CTAType(*cta)
		p.CTAType = &t
	}
	return p, nil
}

func ctaText(t *model.CTAType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func (r *promotionRepo) Save(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	const q = `
INSERT INTO promotions (` + promotionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Title, p.Description, p.StartAt, p.EndAt, p.ImageURL,
		ctaText(p.CTAType), p.CTAValue, p.CTALabel, p.CTAMessage, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *promotionRepo) Update(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	const q = `
UPDATE promotions
   SET title=$2, description=$3, start_at=$4, end_at=$5, image_url=$6,
       cta_type=$7, cta_value=$8, cta_label=$9, cta_message=$10, updated_at=$11
 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Title, p.Description, p.StartAt, p.EndAt, p.ImageURL,
		ctaText(p.CTAType), p.CTAValue, p.CTALabel, p.CTAMessage, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *promotionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM promotions WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *promotionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	q := `SELECT ` + promotionColumns + ` FROM promotions WHERE id=$1` + lockSuffix(tx) + `;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPromotion(row)
}

func (r *promotionRepo) ListActive(ctx context.Context, tx repository.Tx, now, dayStart time.Time) ([]*model.Promotion, error) {
	const q = `
SELECT ` + promotionColumns + `
  FROM promotions
 WHERE start_at <= $1 AND end_at >= $2
 ORDER BY start_at DESC, id;`
	return r.list(ctx, tx, q, now, dayStart)
}

func (r *promotionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Promotion, error) {
	return r.list(ctx, tx, `SELECT `+promotionColumns+` FROM promotions ORDER BY created_at DESC, id;`)
}

func (r *promotionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Promotion, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapError(rows.Err())
}
