package repository

import (
	"context"

	"listing-marketplace/internal/domain/model"
)

// -----------------------------
// Payment orders
// -----------------------------

type PaymentOrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.PaymentOrder) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentOrder, error)
	// FindPending matches (id, kind, status=pending) and returns ErrNotFound otherwise.
	FindPending(ctx context.Context, tx Tx, id string, kind model.OrderKind) (*model.PaymentOrder, error)
	// UpdateStatusIfPending moves a pending order to a terminal status. It reports false
	// when the order already left pending.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, gatewayPaymentID *string) (bool, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.PaymentStatus]int, error)
}
