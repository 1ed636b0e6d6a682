package repository

import (
	"context"

	"listing-marketplace/internal/domain/model"
)

// -----------------------------
// Gold transactions
// -----------------------------

type GoldTransactionRepository interface {
	Append(ctx context.Context, tx Tx, t *model.GoldTransaction) error
	// ListByIdentity returns a newest-first page and the total count.
	ListByIdentity(ctx context.Context, tx Tx, identityID string, offset, limit int) ([]*model.GoldTransaction, int, error)
	// Balance is sum(earn) - sum(spend) over the log.
	Balance(ctx context.Context, tx Tx, identityID string) (int64, error)
}
