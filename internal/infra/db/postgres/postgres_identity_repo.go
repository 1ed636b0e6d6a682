package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
)

var _ repository.IdentityRepository = (*identityRepo)(nil)

// FieldCipher seals sensitive columns at rest. nil stores plaintext.
type FieldCipher interface {
	Seal(plaintext string) (string, error)
	Open(stored string) (string, error)
}

type identityRepo struct {
	pool   *pgxpool.Pool
	cipher FieldCipher
}

func NewIdentityRepo(pool *pgxpool.Pool, cipher FieldCipher) *identityRepo {
	return &identityRepo{pool: pool, cipher: cipher}
}

const identityColumns = `id, name, email, phone, password_hash, service_profile_id, shop_profile_id, gateway_customer_id,
  gold_balance, ads_watched_today, last_ad_watch_at, is_premium, ad_free_until,
  referral_code, referral_balance::text, referred_by,
  withdrawal_amount::text, withdrawal_channel, withdrawal_phone, withdrawal_requested_at,
  pending_service_end_at, pending_shop_end_at, created_at, updated_at`

// identityRow holds the flattened columns before they are folded into model.Identity.
type identityRow struct {
	id                        model.Identity
	balance                   string
	wAmount, wChannel, wPhone *string
	wRequestedAt              *time.Time
}

func (r *identityRepo) scan(row pgx.Row) (*model.Identity, error) {
	var v identityRow
	i := &v.id
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.Phone, &i.PasswordHash, &i.ServiceProfileID, &i.ShopProfileID, &i.GatewayCustomerID,
		&i.GoldBalance, &i.AdsWatchedToday, &i.LastAdWatchAt, &i.IsPremium, &i.AdFreeUntil,
		&i.ReferralCode, &v.balance, &i.ReferredBy,
		&v.wAmount, &v.wChannel, &v.wPhone, &v.wRequestedAt,
		&i.PendingServiceEndAt, &i.PendingShopEndAt, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if mapped := mapError(err); mapped == domain.ErrNotFound {
			return nil, mapped
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if i.ReferralBalance, err = decimal.NewFromString(v.balance); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if v.wAmount != nil && v.wRequestedAt != nil {
		amount, err := decimal.NewFromString(*v.wAmount)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		req := &model.WithdrawalRequest{Amount: amount, RequestedAt: *v.wRequestedAt}
		if v.wChannel != nil {
			req.Channel = model.PayoutChannel(*v.wChannel)
		}
		if v.wPhone != nil {
			if req.PayoutPhone, err = r.open(*v.wPhone); err != nil {
				return nil, domain.ErrReadDatabaseRow
			}
		}
		i.Withdrawal = req
	}
	return i, nil
}

func (r *identityRepo) open(s string) (string, error) {
	if r.cipher == nil {
		return s, nil
	}
	return r.cipher.Open(s)
}

func (r *identityRepo) seal(s string) (string, error) {
	if r.cipher == nil {
		return s, nil
	}
	return r.cipher.Seal(s)
}

// withdrawalArgs flattens the pending request into nullable columns.
func (r *identityRepo) withdrawalArgs(w *model.WithdrawalRequest) (amount, channel, phone *string, at *time.Time, err error) {
	if w == nil {
		return nil, nil, nil, nil, nil
	}
	a, c := w.Amount.String(), string(w.Channel)
	p, err := r.seal(w.PayoutPhone)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	t := w.RequestedAt
	return &a, &c, &p, &t, nil
}

func (r *identityRepo) Save(ctx context.Context, tx repository.Tx, i *model.Identity) error {
	const q = `
INSERT INTO identities (
  id, name, email, phone, password_hash, referral_code, referral_balance, referred_by, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8,$9,$10);`
	_, err := execSQL(ctx, r.pool, tx, q, i.ID, i.Name, i.Email, i.Phone, i.PasswordHash, i.ReferralCode,
		i.ReferralBalance.String(), i.ReferredBy, i.CreatedAt, i.UpdatedAt)
	if domain.KindOf(err) == domain.ErrConflict {
		return domain.WrapError(domain.ErrConflict, "user already exists", err)
	}
	return err
}

func (r *identityRepo) Update(ctx context.Context, tx repository.Tx, i *model.Identity) error {
	wAmount, wChannel, wPhone, wAt, err := r.withdrawalArgs(i.Withdrawal)
	if err != nil {
		return err
	}
	const q = `
UPDATE identities SET
  name=$2, email=$3, phone=$4, password_hash=$5, service_profile_id=$6, shop_profile_id=$7, gateway_customer_id=$8,
  gold_balance=$9, ads_watched_today=$10, last_ad_watch_at=$11, is_premium=$12, ad_free_until=$13,
  referral_code=$14, referral_balance=$15::numeric, referred_by=$16,
  withdrawal_amount=$17::numeric, withdrawal_channel=$18, withdrawal_phone=$19, withdrawal_requested_at=$20,
  pending_service_end_at=$21, pending_shop_end_at=$22, updated_at=$23
WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, i.ID, i.Name, i.Email, i.Phone, i.PasswordHash, i.ServiceProfileID, i.ShopProfileID, i.GatewayCustomerID,
		i.GoldBalance, i.AdsWatchedToday, i.LastAdWatchAt, i.IsPremium, i.AdFreeUntil,
		i.ReferralCode, i.ReferralBalance.String(), i.ReferredBy,
		wAmount, wChannel, wPhone, wAt,
		i.PendingServiceEndAt, i.PendingShopEndAt, i.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *identityRepo) findOne(ctx context.Context, tx repository.Tx, where string, arg interface{}) (*model.Identity, error) {
	q := `SELECT ` + identityColumns + ` FROM identities WHERE ` + where + lockSuffix(tx) + `;`
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	return r.scan(row)
}

func (r *identityRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Identity, error) {
	return r.findOne(ctx, tx, "id=$1", id)
}

func (r *identityRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Identity, error) {
	return r.findOne(ctx, tx, "email=$1", email)
}

func (r *identityRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.Identity, error) {
	return r.findOne(ctx, tx, "phone=$1", phone)
}

func (r *identityRepo) FindByReferralCode(ctx context.Context, tx repository.Tx, code string) (*model.Identity, error) {
	return r.findOne(ctx, tx, "referral_code=$1", code)
}

// SetReferralCode assigns code only when none is set yet. A code taken by another identity
// surfaces as ErrConflict so the caller can retry with a fresh one.
func (r *identityRepo) SetReferralCode(ctx context.Context, tx repository.Tx, id, code string) (bool, error) {
	const q = `UPDATE identities SET referral_code=$2, updated_at=NOW() WHERE id=$1 AND referral_code IS NULL;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *identityRepo) ListPendingWithdrawals(ctx context.Context, tx repository.Tx) ([]model.PendingWithdrawal, error) {
	const q = `
SELECT id, name, email, phone, withdrawal_amount::text, withdrawal_channel, withdrawal_phone, withdrawal_requested_at
  FROM identities
 WHERE withdrawal_requested_at IS NOT NULL
 ORDER BY withdrawal_requested_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PendingWithdrawal
	for rows.Next() {
		var (
			p             model.PendingWithdrawal
			amount, phone string
			channel       string
		)
		if err := rows.Scan(&p.IdentityID, &p.Name, &p.Email, &p.Phone, &amount, &channel, &phone, &p.Request.RequestedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if p.Request.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if p.Request.PayoutPhone, err = r.open(phone); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		p.Request.Channel = model.PayoutChannel(channel)
		out = append(out, p)
	}
	return out, mapError(rows.Err())
}

func (r *identityRepo) ListIDs(ctx context.Context, tx repository.Tx, after string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id FROM identities WHERE id > $1 ORDER BY id LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		ids = append(ids, id)
	}
	return ids, mapError(rows.Err())
}
