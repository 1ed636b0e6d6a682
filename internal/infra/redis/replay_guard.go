package redis

import (
	"context"
	"time"

	"listing-marketplace/internal/domain/ports/adapter"
)

var _ adapter.ReplayGuard = (*ReplayGuard)(nil)

// ReplayGuard remembers processed webhook bodies for a TTL.
type ReplayGuard struct {
	client RedisClient
}

func NewReplayGuard(client RedisClient) *ReplayGuard {
	return &ReplayGuard{client: client}
}

// Seen reports whether key was remembered and has not expired.
func (g *ReplayGuard) Seen(ctx context.Context, key string) (bool, error) {
	_, err := g.client.Get(ctx, key)
	if err == nil {
		return true, nil
	}
	if IsNil(err) {
		return false, nil
	}
	return false, err
}

func (g *ReplayGuard) Remember(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return g.client.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl)
}
