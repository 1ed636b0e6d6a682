package adapter

import (
	"context"
	"time"
)

// ReplayGuard remembers keys of events that were already applied. Remember is called only
// after the ledger committed, so a failed or in-flight attempt never hides a redelivery.
type ReplayGuard interface {
	Seen(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string, ttl time.Duration) error
}
