package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
)

var _ repository.ProfileRepository = (*profileRepo)(nil)

type profileRepo struct{ pool *pgxpool.Pool }

func NewProfileRepo(pool *pgxpool.Pool) *profileRepo {
	return &profileRepo{pool: pool}
}

const profileColumns = `id, kind, owner_id, name, phone, address, state, district, city, pincode, images, status,
  start_at, end_at, service_provided, whatsapp_number, opening_hours, boost_expires_at, created_at, updated_at`

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var (
		p     model.Profile
		hours []byte
	)
	err := row.Scan(&p.ID, &p.Kind, &p.OwnerID, &p.Name, &p.Phone, &p.Address,
		&p.Location.State, &p.Location.District, &p.Location.City, &p.Location.Pincode, &p.Images, &p.Status,
		&p.Window.StartAt, &p.Window.EndAt, &p.ServiceProvided, &p.WhatsappNumber, &hours, &p.BoostExpiresAt,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if mapped := mapError(err); mapped == domain.ErrNotFound {
			return nil, mapped
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &p.OpeningHours); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &p, nil
}

func openingHoursArg(h map[string]model.OpeningHours) ([]byte, error) {
	if len(h) == 0 {
		return nil, nil
	}
	return json.Marshal(h)
}

// imagesArg keeps the NOT NULL images column an empty array instead of NULL.
func imagesArg(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}

func (r *profileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	hours, err := openingHoursArg(p.OpeningHours)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO profiles (
  id, kind, owner_id, name, phone, address, state, district, city, pincode, images, status,
  start_at, end_at, service_provided, whatsapp_number, opening_hours, boost_expires_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20);`
	_, err = execSQL(ctx, r.pool, tx, q, p.ID, p.Kind, p.OwnerID, p.Name, p.Phone, p.Address,
		p.Location.State, p.Location.District, p.Location.City, p.Location.Pincode, imagesArg(p.Images), p.Status,
		p.Window.StartAt, p.Window.EndAt, p.ServiceProvided, p.WhatsappNumber, hours, p.BoostExpiresAt,
		p.CreatedAt, p.UpdatedAt)
	if domain.KindOf(err) == domain.ErrConflict {
		return domain.WrapError(domain.ErrConflict, "profile already exists for this user or phone", err)
	}
	return err
}

// Update writes the descriptive fields. The window and boost are owned by UpdateWindow and
// SetBoost and are never touched here.
func (r *profileRepo) Update(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	hours, err := openingHoursArg(p.OpeningHours)
	if err != nil {
		return err
	}
	const q = `
UPDATE profiles SET
  name=$2, phone=$3, address=$4, state=$5, district=$6, city=$7, pincode=$8, images=$9, status=$10,
  service_provided=$11, whatsapp_number=$12, opening_hours=$13, updated_at=$14
WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Phone, p.Address,
		p.Location.State, p.Location.District, p.Location.City, p.Location.Pincode, imagesArg(p.Images), p.Status,
		p.ServiceProvided, p.WhatsappNumber, hours, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *profileRepo) FindByID(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string) (*model.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE kind=$1 AND id=$2` + lockSuffix(tx) + `;`
	row, err := pickRow(ctx, r.pool, tx, q, kind, id)
	if err != nil {
		return nil, err
	}
	return scanProfile(row)
}

func (r *profileRepo) FindByOwner(ctx context.Context, tx repository.Tx, kind model.ProfileKind, ownerID string) (*model.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE kind=$1 AND owner_id=$2` + lockSuffix(tx) + `;`
	row, err := pickRow(ctx, r.pool, tx, q, kind, ownerID)
	if err != nil {
		return nil, err
	}
	return scanProfile(row)
}

func (r *profileRepo) UpdateWindow(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string, start *time.Time, end time.Time) error {
	const q = `UPDATE profiles SET start_at=COALESCE($3, start_at), end_at=$4, updated_at=NOW() WHERE kind=$1 AND id=$2;`
	tag, err := execSQL(ctx, r.pool, tx, q, kind, id, start, end)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *profileRepo) SetBoost(ctx context.Context, tx repository.Tx, id string, until time.Time) error {
	const q = `UPDATE profiles SET boost_expires_at=$2, updated_at=NOW() WHERE id=$1 AND kind='shop';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, until)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// profileWhere appends the location and text filters of f to where/args.
func profileWhere(f repository.ProfileFilter, where []string, args []interface{}) ([]string, []interface{}) {
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.State != "" {
		add("LOWER(state)=LOWER($%d)", f.State)
	}
	if f.District != "" {
		add("LOWER(district)=LOWER($%d)", f.District)
	}
	if f.City != "" {
		add("LOWER(city)=LOWER($%d)", f.City)
	}
	if f.Pincode != "" {
		add("pincode=$%d", f.Pincode)
	}
	if f.Query != "" {
		add("(name ILIKE $%[1]d OR service_provided ILIKE $%[1]d)", "%"+f.Query+"%")
	}
	return where, args
}

func (r *profileRepo) collect(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Profile, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapError(rows.Err())
}

// ListListed returns paid, enabled profiles. Boosted shops come first, then newest windows.
func (r *profileRepo) ListListed(ctx context.Context, tx repository.Tx, f repository.ProfileFilter) ([]*model.Profile, error) {
	where, args := profileWhere(f,
		[]string{"kind=$1", "status <> 'disabled'", "end_at IS NOT NULL", "end_at >= $2"},
		[]interface{}{f.Kind, f.Now})
	args = append(args, f.Limit, f.Offset)
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(` ORDER BY (boost_expires_at IS NOT NULL AND boost_expires_at > $2) DESC, end_at DESC, id LIMIT $%d OFFSET $%d;`, len(args)-1, len(args))
	return r.collect(ctx, tx, q, args...)
}

// ListAll is the admin view: disabled and expired profiles included.
func (r *profileRepo) ListAll(ctx context.Context, tx repository.Tx, f repository.ProfileFilter) ([]*model.Profile, int, error) {
	where, args := profileWhere(f, []string{"kind=$1"}, []interface{}{f.Kind})
	cond := strings.Join(where, " AND ")

	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM profiles WHERE `+cond+`;`, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	args = append(args, f.Limit, f.Offset)
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE ` + cond +
		fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d;`, len(args)-1, len(args))
	out, err := r.collect(ctx, tx, q, args...)
	return out, total, err
}
