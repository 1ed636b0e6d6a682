package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"listing-marketplace/internal/domain"
)

// ProfileKind discriminates the two listing profile types an identity may own.
type ProfileKind string

const (
	ProfileKindService ProfileKind = "service"
	ProfileKindShop    ProfileKind = "shop"
)

func (k ProfileKind) Valid() bool { return k == ProfileKindService || k == ProfileKindShop }

type ProfileStatus string

const (
	ProfileStatusEnabled  ProfileStatus = "enabled"
	ProfileStatusDisabled ProfileStatus = "disabled"
)

// MaxProfileImages bounds the image gallery of a profile.
const MaxProfileImages = 5

// Location is the listing's place in the state/district/city/pincode hierarchy.
type Location struct {
	State    string
	District string
	City     string
	Pincode  string
}

func (l Location) Complete() bool {
	return l.State != "" && l.District != "" && l.City != "" && l.Pincode != ""
}

// SubscriptionWindow is the access period written exclusively by confirmed payments.
type SubscriptionWindow struct {
	StartAt *time.Time
	EndAt   *time.Time
}

// Active reports whether the window covers now.
func (w SubscriptionWindow) Active(now time.Time) bool {
	return w.EndAt != nil && !w.EndAt.Before(now)
}

// Profile is a listing owned by exactly one identity. Service-provider and shop profiles
// share this shape; kind-specific fields are left empty for the other kind.
type Profile struct {
	ID       string
	Kind     ProfileKind
	OwnerID  string
	Name     string
	Phone    *string
	Address  *string
	Location Location
	Images   []string
	Status   ProfileStatus
	Window   SubscriptionWindow

	// service provider
	ServiceProvided string

	// shop
	WhatsappNumber *string
	OpeningHours   map[string]OpeningHours
	BoostExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OpeningHours struct {
	Open  string `json:"open,omitempty"`
	Close string `json:"close,omitempty"`
}

// NewProfile validates the descriptive fields common to both kinds.
func NewProfile(kind ProfileKind, ownerID, name string, loc Location) (*Profile, error) {
	if !kind.Valid() || ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewError(domain.ErrValidation, "name is required")
	}
	loc = Location{
		State:    strings.TrimSpace(loc.State),
		District: strings.TrimSpace(loc.District),
		City:     strings.TrimSpace(loc.City),
		Pincode:  strings.TrimSpace(loc.Pincode),
	}
	if !loc.Complete() {
		return nil, domain.NewError(domain.ErrValidation, "pincode, state, district and city are required")
	}
	now := time.Now()
	return &Profile{
		ID:        uuid.NewString(),
		Kind:      kind,
		OwnerID:   ownerID,
		Name:      name,
		Location:  loc,
		Status:    ProfileStatusEnabled,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Listed reports whether the profile is visible in public search.
func (p *Profile) Listed(now time.Time) bool {
	return p.Status != ProfileStatusDisabled && p.Window.Active(now)
}

// Boosted reports whether the shop boost is in effect.
func (p *Profile) Boosted(now time.Time) bool {
	return p.BoostExpiresAt != nil && p.BoostExpiresAt.After(now)
}

// ValidOpeningDays lists the accepted keys of OpeningHours.
var ValidOpeningDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// NormalizeOpeningHours keeps known weekdays with at least one bound set.
func NormalizeOpeningHours(in map[string]OpeningHours) map[string]OpeningHours {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]OpeningHours)
	for _, day := range ValidOpeningDays {
		h, ok := in[day]
		if !ok {
			continue
		}
		h.Open, h.Close = strings.TrimSpace(h.Open), strings.TrimSpace(h.Close)
		if h.Open == "" && h.Close == "" {
			continue
		}
		out[day] = h
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
