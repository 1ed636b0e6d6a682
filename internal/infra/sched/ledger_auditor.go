package sched

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/infra/metrics"
	"listing-marketplace/internal/infra/worker"
	"listing-marketplace/internal/usecase"
)

// Locker keeps a pass single-flight across instances.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

const (
	auditLockKey  = "lock:ledger_auditor"
	auditPageSize = 200
)

// LedgerAuditor compares every identity's cached gold balance with the sum of its
// transaction log. It only reports; it never rewrites balances.
type LedgerAuditor struct {
	uc      usecase.AuditUseCase
	pool    *worker.Pool
	locker  Locker
	lockTTL time.Duration
	log     *zerolog.Logger
}

// NewLedgerAuditor: locker may be nil when running a single instance.
func NewLedgerAuditor(uc usecase.AuditUseCase, pool *worker.Pool, locker Locker, lockTTL time.Duration, logger *zerolog.Logger) *LedgerAuditor {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &LedgerAuditor{uc: uc, pool: pool, locker: locker, lockTTL: lockTTL, log: logger}
}

func (a *LedgerAuditor) Name() string { return "ledger_auditor" }

// Run performs one full pass and returns the drifted identities.
func (a *LedgerAuditor) Run(ctx context.Context) error {
	_, err := a.Pass(ctx)
	return err
}

func (a *LedgerAuditor) Pass(ctx context.Context) ([]usecase.GoldDrift, error) {
	if a.locker != nil {
		token, err := a.locker.TryLock(ctx, auditLockKey, a.lockTTL)
		if errors.Is(err, domain.ErrConflict) {
			a.log.Debug().Msg("ledger audit skipped; another instance holds the lock")
			return nil, nil
		}
		if err != nil {
			metrics.IncLedgerAudit("failed")
			return nil, err
		}
		defer func() {
			if err := a.locker.Unlock(context.Background(), auditLockKey, token); err != nil {
				a.log.Warn().Err(err).Msg("ledger audit unlock failed")
			}
		}()
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		drifts  []usecase.GoldDrift
		checked int
		failed  int
	)
	after := ""
	for {
		ids, err := a.uc.IdentityIDs(ctx, after, auditPageSize)
		if err != nil {
			_ = waitGroup(ctx, &wg)
			metrics.IncLedgerAudit("failed")
			return nil, err
		}
		for _, id := range ids {
			wg.Add(1)
			err := a.pool.SubmitWait(ctx, func(context.Context) error {
				defer wg.Done()
				d, err := a.uc.CheckGold(ctx, id)
				mu.Lock()
				defer mu.Unlock()
				checked++
				if err != nil {
					failed++
					return err
				}
				if d != nil {
					drifts = append(drifts, *d)
				}
				return nil
			})
			if err != nil {
				wg.Done()
				_ = waitGroup(ctx, &wg)
				metrics.IncLedgerAudit("failed")
				return nil, err
			}
		}
		if len(ids) < auditPageSize {
			break
		}
		after = ids[len(ids)-1]
	}
	if err := waitGroup(ctx, &wg); err != nil {
		metrics.IncLedgerAudit("failed")
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()

	for _, d := range drifts {
		a.log.Error().
			Str("identity_id", d.IdentityID).
			Int64("cached", d.Cached).
			Int64("logged", d.Logged).
			Msg("gold balance drift detected")
	}
	metrics.SetLedgerDrift(len(drifts))
	metrics.IncLedgerAudit("completed")
	a.log.Info().Int("checked", checked).Int("failed", failed).Int("drift", len(drifts)).Msg("ledger audit finished")
	return drifts, nil
}

// waitGroup waits for wg unless ctx ends first.
func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
