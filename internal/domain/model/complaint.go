package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"listing-marketplace/internal/domain"
)

type ComplaintStatus string

const (
	ComplaintPending    ComplaintStatus = "pending"
	ComplaintInProgress ComplaintStatus = "in_progress"
	ComplaintResolved   ComplaintStatus = "resolved"
)

// Complaint is a help request. Guests may file one; IdentityID is set when the sender was
// signed in.
type Complaint struct {
	ID         string
	Name       string
	Email      *string
	Phone      *string
	Subject    string
	Message    string
	IdentityID *string
	Status     ComplaintStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewComplaint(name, email, phone, subject, message string, identityID *string) (*Complaint, error) {
	c := &Complaint{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(name),
		Email:      OptionalText(strings.ToLower(email)),
		Phone:      OptionalText(phone),
		Subject:    strings.TrimSpace(subject),
		Message:    strings.TrimSpace(message),
		IdentityID: identityID,
		Status:     ComplaintPending,
	}
	switch {
	case c.Name == "":
		return nil, domain.NewError(domain.ErrValidation, "name is required")
	case c.Subject == "":
		return nil, domain.NewError(domain.ErrValidation, "subject is required")
	case c.Message == "":
		return nil, domain.NewError(domain.ErrValidation, "message is required")
	case c.Email == nil && c.Phone == nil:
		return nil, domain.NewError(domain.ErrValidation, "either email or phoneNumber is required for contact")
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	return c, nil
}
