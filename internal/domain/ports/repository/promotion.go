package repository

import (
	"context"
	"time"

	"listing-marketplace/internal/domain/model"
)

// -----------------------------
// Promotions
// -----------------------------

type PromotionRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Promotion) error
	Update(ctx context.Context, tx Tx, p *model.Promotion) error
	Delete(ctx context.Context, tx Tx, id string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Promotion, error)
	// ListActive returns promotions started by now and ending on or after dayStart,
	// newest start first.
	ListActive(ctx context.Context, tx Tx, now, dayStart time.Time) ([]*model.Promotion, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Promotion, error)
}

// -----------------------------
// Complaints
// -----------------------------

type ComplaintRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Complaint) error
	// ListByIdentity returns a newest-first page and the total count.
	ListByIdentity(ctx context.Context, tx Tx, identityID string, offset, limit int) ([]*model.Complaint, int, error)
}
