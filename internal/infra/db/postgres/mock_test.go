//go:build !integration

package postgres

import (
	"context"
	"time"

	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	red "listing-marketplace/internal/infra/redis"
)

// --- Mocks for cache decorator tests ---

// mockInnerProfileRepo mocks the database repository the profile decorator wraps.
type mockInnerProfileRepo struct {
	repository.ProfileRepository
	FindByIDFunc     func(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string) (*model.Profile, error)
	UpdateFunc       func(ctx context.Context, tx repository.Tx, p *model.Profile) error
	UpdateWindowFunc func(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string, start *time.Time, end time.Time) error
	SetBoostFunc     func(ctx context.Context, tx repository.Tx, id string, until time.Time) error
}

func (m *mockInnerProfileRepo) FindByID(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string) (*model.Profile, error) {
	return m.FindByIDFunc(ctx, tx, kind, id)
}
func (m *mockInnerProfileRepo) Update(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	return m.UpdateFunc(ctx, tx, p)
}
func (m *mockInnerProfileRepo) UpdateWindow(ctx context.Context, tx repository.Tx, kind model.ProfileKind, id string, start *time.Time, end time.Time) error {
	return m.UpdateWindowFunc(ctx, tx, kind, id, start, end)
}
func (m *mockInnerProfileRepo) SetBoost(ctx context.Context, tx repository.Tx, id string, until time.Time) error {
	return m.SetBoostFunc(ctx, tx, id, until)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNXFunc  func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return m.SetNXFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
