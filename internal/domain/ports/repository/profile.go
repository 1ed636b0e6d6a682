package repository

import (
	"context"
	"time"

	"listing-marketplace/internal/domain/model"
)

// -----------------------------
// Profiles
// -----------------------------

type ProfileFilter struct {
	Kind     model.ProfileKind
	State    string
	District string
	City     string
	Pincode  string
	Query    string
	Now      time.Time
	Offset   int
	Limit    int
}

type ProfileRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Profile) error
	Update(ctx context.Context, tx Tx, p *model.Profile) error
	FindByID(ctx context.Context, tx Tx, kind model.ProfileKind, id string) (*model.Profile, error)
	FindByOwner(ctx context.Context, tx Tx, kind model.ProfileKind, ownerID string) (*model.Profile, error)
	// UpdateWindow writes the subscription window; a nil start keeps the stored start.
	UpdateWindow(ctx context.Context, tx Tx, kind model.ProfileKind, id string, start *time.Time, end time.Time) error
	SetBoost(ctx context.Context, tx Tx, id string, until time.Time) error
	// ListListed returns listed profiles only, boosted shops first.
	ListListed(ctx context.Context, tx Tx, f ProfileFilter) ([]*model.Profile, error)
	// ListAll returns every profile of f.Kind, listed or not, newest first, with the total.
	ListAll(ctx context.Context, tx Tx, f ProfileFilter) ([]*model.Profile, int, error)
}
