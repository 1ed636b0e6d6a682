package repository

import (
	"context"

	"listing-marketplace/internal/domain/model"
)

// -----------------------------
// Identities
// -----------------------------

// IdentityRepository persists the canonical account record. FindByID locks the row
// (SELECT ... FOR UPDATE) when called inside a transaction.
type IdentityRepository interface {
	Save(ctx context.Context, tx Tx, id *model.Identity) error
	Update(ctx context.Context, tx Tx, id *model.Identity) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Identity, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Identity, error)
	FindByPhone(ctx context.Context, tx Tx, phone string) (*model.Identity, error)
	FindByReferralCode(ctx context.Context, tx Tx, code string) (*model.Identity, error)
	// SetReferralCode writes code only when the identity has none yet; false means another
	// request won the race and the caller should re-read.
	SetReferralCode(ctx context.Context, tx Tx, id, code string) (bool, error)
	ListPendingWithdrawals(ctx context.Context, tx Tx) ([]model.PendingWithdrawal, error)
	// ListIDs pages identity ids in ascending order after cursor.
	ListIDs(ctx context.Context, tx Tx, after string, limit int) ([]string, error)
}
