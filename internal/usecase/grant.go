package usecase

import (
	"context"
	"time"

	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
)

// grantWriter writes confirmed access windows onto profiles, staging them on the identity
// when the profile does not exist yet. Callers must be inside a transaction.
type grantWriter struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
}

// apply writes [start, end] to target. A nil start keeps the stored start (renewals).
// A staged grant is re-resolved against the locked identity so a profile registered
// after the order was created still receives it.
func (g grantWriter) apply(ctx context.Context, tx repository.Tx, target model.GrantTarget, start *time.Time, end time.Time) (model.GrantTarget, error) {
	switch t := target.(type) {
	case model.ProfileGrant:
		return t, g.profiles.UpdateWindow(ctx, tx, t.Kind, t.ProfileID, start, end)
	case model.StagedGrant:
		id, err := g.identities.FindByID(ctx, tx, t.IdentityID)
		if err != nil {
			return t, err
		}
		if resolved, ok := model.ResolveGrantTarget(id, t.Kind).(model.ProfileGrant); ok {
			return resolved, g.profiles.UpdateWindow(ctx, tx, resolved.Kind, resolved.ProfileID, start, end)
		}
		id.SetPendingEndAt(t.Kind, &end)
		id.UpdatedAt = time.Now()
		return t, g.identities.Update(ctx, tx, id)
	}
	return target, nil
}
