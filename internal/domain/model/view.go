package model

import "time"

// Viewer describes who is looking at a public listing.
type Viewer struct {
	IdentityID    string
	Authenticated bool
}

// PublicProfile is the projection of a profile that leaves the service.
type PublicProfile struct {
	ID              string                  `json:"id"`
	Kind            ProfileKind             `json:"kind"`
	Name            string                  `json:"name"`
	ServiceProvided string                  `json:"serviceProvided,omitempty"`
	Address         *string                 `json:"address,omitempty"`
	State           string                  `json:"state"`
	District        string                  `json:"district"`
	City            string                  `json:"city"`
	Pincode         string                  `json:"pincode"`
	Images          []string                `json:"images"`
	Phone           *string                 `json:"phone,omitempty"`
	WhatsappNumber  *string                 `json:"whatsappNumber,omitempty"`
	PhoneHidden     bool                    `json:"phoneHidden"`
	OpeningHours    map[string]OpeningHours `json:"openingHours,omitempty"`
	Boosted         bool                    `json:"boosted"`
	SubscriptionEnd *time.Time              `json:"subscriptionEndDate,omitempty"`
}

// ToPublicView projects p for v. Contact numbers are only visible to authenticated viewers
// and to the owner; every new field must be added here explicitly to be exposed.
func ToPublicView(p *Profile, v Viewer, now time.Time) PublicProfile {
	out := PublicProfile{
		ID:              p.ID,
		Kind:            p.Kind,
		Name:            p.Name,
		ServiceProvided: p.ServiceProvided,
		Address:         p.Address,
		State:           p.Location.State,
		District:        p.Location.District,
		City:            p.Location.City,
		Pincode:         p.Location.Pincode,
		Images:          append([]string{}, p.Images...),
		OpeningHours:    p.OpeningHours,
		Boosted:         p.Boosted(now),
		SubscriptionEnd: p.Window.EndAt,
	}
	if v.Authenticated || (v.IdentityID != "" && v.IdentityID == p.OwnerID) {
		out.Phone = p.Phone
		out.WhatsappNumber = p.WhatsappNumber
	} else {
		out.PhoneHidden = p.Phone != nil || p.WhatsappNumber != nil
	}
	return out
}
