package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"listing-marketplace/internal/domain"
)

// CTAType is the call-to-action a promotion banner offers.
type CTAType string

const (
	CTAPhone    CTAType = "phone"
	CTAWebsite  CTAType = "website"
	CTAWhatsApp CTAType = "whatsapp"
)

// ParseCTAType returns nil for an empty value.
func ParseCTAType(s string) (*CTAType, error) {
	switch t := CTAType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return nil, nil
	case CTAPhone, CTAWebsite, CTAWhatsApp:
		return &t, nil
	}
	return nil, domain.NewError(domain.ErrValidation, "ctaType must be phone, website or whatsapp")
}

// Promotion is an admin-curated banner shown between its start and end dates.
type Promotion struct {
	ID          string
	Title       string
	Description string
	StartAt     time.Time
	EndAt       time.Time
	ImageURL    *string
	CTAType     *CTAType
	CTAValue    *string
	CTALabel    *string
	CTAMessage  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewPromotion(title, description string, start, end time.Time) (*Promotion, error) {
	now := time.Now()
	p := &Promotion{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		StartAt:     start,
		EndAt:       end,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Promotion) Validate() error {
	switch {
	case p.Title == "":
		return domain.NewError(domain.ErrValidation, "title is required")
	case p.StartAt.IsZero():
		return domain.NewError(domain.ErrValidation, "start date is required")
	case p.EndAt.IsZero():
		return domain.NewError(domain.ErrValidation, "end date is required")
	case p.EndAt.Before(p.StartAt):
		return domain.NewError(domain.ErrValidation, "end date must be after start date")
	}
	return nil
}

// Active reports whether the promotion has started and ends today or later. The end date
// is compared against local midnight so a promotion stays up for its whole last day.
func (p *Promotion) Active(now time.Time) bool {
	return !p.StartAt.After(now) && !p.EndAt.Before(StartOfDay(now))
}

// StartOfDay is local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// OptionalText trims s and maps blank to nil.
func OptionalText(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
