package model

import "time"

// GrantTarget is where a confirmed payment writes its access window: onto an existing
// profile, or staged on the identity until the profile is registered.
type GrantTarget interface {
	ProfileKind() ProfileKind
	isGrantTarget()
}

type ProfileGrant struct {
	ProfileID string
	Kind      ProfileKind
}

type StagedGrant struct {
	IdentityID string
	Kind       ProfileKind
}

func (g ProfileGrant) ProfileKind() ProfileKind { return g.Kind }
func (g StagedGrant) ProfileKind() ProfileKind  { return g.Kind }
func (ProfileGrant) isGrantTarget()             {}
func (StagedGrant) isGrantTarget()              {}

// ResolveGrantTarget picks the profile linked on id for kind, else a staged grant.
func ResolveGrantTarget(id *Identity, kind ProfileKind) GrantTarget {
	if p := id.ProfileID(kind); p != nil && *p != "" {
		return ProfileGrant{ProfileID: *p, Kind: kind}
	}
	return StagedGrant{IdentityID: id.ID, Kind: kind}
}

// ConsumeStagedGrant applies a staged end date to a freshly registered profile when it is
// still in the future, and clears it from the identity either way.
func ConsumeStagedGrant(id *Identity, p *Profile, now time.Time) bool {
	end := id.PendingEndAt(p.Kind)
	if end == nil {
		return false
	}
	id.SetPendingEndAt(p.Kind, nil)
	if !end.After(now) {
		return false
	}
	e := *end
	start := e.Add(-SubscriptionPeriod)
	p.Window = SubscriptionWindow{StartAt: &start, EndAt: &e}
	return true
}
