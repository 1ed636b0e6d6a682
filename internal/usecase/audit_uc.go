package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/logging"
)

// Compile-time check
var _ AuditUseCase = (*auditUC)(nil)

// AuditUseCase checks the gold wallet invariant: the cached balance equals
// sum(earn) - sum(spend) over the transaction log. It never mutates anything.
type AuditUseCase interface {
	IdentityIDs(ctx context.Context, after string, limit int) ([]string, error)
	CheckGold(ctx context.Context, identityID string) (*GoldDrift, error)
}

// GoldDrift is nil when the identity is consistent.
type GoldDrift struct {
	IdentityID string
	Cached     int64
	Logged     int64
}

type auditUC struct {
	identities repository.IdentityRepository
	txs        repository.GoldTransactionRepository
	tm         repository.TransactionManager
	log        *zerolog.Logger
}

func NewAuditUseCase(identities repository.IdentityRepository, txs repository.GoldTransactionRepository, tm repository.TransactionManager, logger *zerolog.Logger) *auditUC {
	return &auditUC{identities: identities, txs: txs, tm: tm, log: logger}
}

func (u *auditUC) IdentityIDs(ctx context.Context, after string, limit int) ([]string, error) {
	return u.identities.ListIDs(ctx, repository.NoTX, after, limit)
}

func (u *auditUC) CheckGold(ctx context.Context, identityID string) (*GoldDrift, error) {
	defer logging.TraceDuration(u.log, "AuditUC.CheckGold")()

	var drift *GoldDrift
	// Both reads must see the same snapshot, otherwise a concurrent spend shows up as drift.
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(ctx context.Context, tx repository.Tx) error {
		id, err := u.identities.FindByID(ctx, tx, identityID)
		if err != nil {
			return err
		}
		logged, err := u.txs.Balance(ctx, tx, identityID)
		if err != nil {
			return err
		}
		if logged != id.GoldBalance {
			drift = &GoldDrift{IdentityID: identityID, Cached: id.GoldBalance, Logged: logged}
		}
		return nil
	})
	return drift, err
}
