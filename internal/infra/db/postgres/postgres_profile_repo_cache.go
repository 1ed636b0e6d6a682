package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/metrics"
	red "listing-marketplace/internal/infra/redis"
)

var _ repository.ProfileRepository = (*profileRepoCacheDecorator)(nil)

// profileRepoCacheDecorator caches non-transactional FindByID reads of public listing pages.
// Transactional reads always hit the database since they take row locks.
type profileRepoCacheDecorator struct {
	repository.ProfileRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

// NewProfileRepoCacheDecorator keeps entries for ttl (30s when ttl <= 0). Writes evict.
func NewProfileRepoCacheDecorator(inner repository.ProfileRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.ProfileRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &profileRepoCacheDecorator{ProfileRepository: inner, cache: cache, ttl: ttl, log: logger}
}

func profileCacheKey(kind model.ProfileKind, id string) string {
	return fmt.Sprintf("profile:%s:%s", kind, id)
}

func (d *profileRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string) (*model.Profile, error) {
	if tx != nil {
		return d.ProfileRepository.FindByID(ctx, tx, kind, id)
	}
	key := profileCacheKey(kind, id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var p model.Profile
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("profile", "hit")
			return &p, nil
		}
	} else if !red.IsNil(err) {
		d.log.Warn().Err(err).Str("key", key).Msg("profile cache read failed")
	}

	metrics.IncCacheRequest("profile", "miss")
	p, err := d.ProfileRepository.FindByID(ctx, tx, kind, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("profile cache write failed")
		}
	}
	return p, nil
}

func (d *profileRepoCacheDecorator) evict(ctx context.Context, kind model.ProfileKind, id string) {
	if err := d.cache.Del(ctx, profileCacheKey(kind, id)); err != nil {
		d.log.Warn().Err(err).Str("profile_id", id).Msg("profile cache eviction failed")
	}
}

func (d *profileRepoCacheDecorator) Update(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	if err := d.ProfileRepository.Update(ctx, tx, p); err != nil {
		return err
	}
	d.evict(ctx, p.Kind, p.ID)
	return nil
}

func (d *profileRepoCacheDecorator) UpdateWindow(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string, start *time.Time, end time.Time) error {
	if err := d.ProfileRepository.UpdateWindow(ctx, tx, kind, id, start, end); err != nil {
		return err
	}
	d.evict(ctx, kind, id)
	return nil
}

func (d *profileRepoCacheDecorator) SetBoost(ctx context.Context, tx repository.Tx, id string, until time.Time) error {
	if err := d.ProfileRepository.SetBoost(ctx, tx, id, until); err != nil {
		return err
	}
	d.evict(ctx, model.ProfileKindShop, id)
	return nil
}
