package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/logging"
)

// Compile-time check
var _ HelpUseCase = (*helpUC)(nil)

// HelpUseCase files support complaints. Guests may file; only members can list theirs.
type HelpUseCase interface {
	Submit(ctx context.Context, in ComplaintInput) (*model.Complaint, error)
	ListMine(ctx context.Context, identityID string, page, limit int) ([]*model.Complaint, int, error)
}

type ComplaintInput struct {
	Name       string
	Email      string
	Phone      string
	Subject    string
	Message    string
	IdentityID string // empty for guests
}

const (
	defaultComplaintLimit = 10
	maxComplaintLimit     = 50
	maxComplaintPage      = 10_000
)

type helpUC struct {
	complaints repository.ComplaintRepository
	log        *zerolog.Logger
}

func NewHelpUseCase(complaints repository.ComplaintRepository, logger *zerolog.Logger) *helpUC {
	return &helpUC{complaints: complaints, log: logger}
}

func (u *helpUC) Submit(ctx context.Context, in ComplaintInput) (*model.Complaint, error) {
	defer logging.TraceDuration(u.log, "HelpUC.Submit")()

	var owner *string
	if in.IdentityID != "" {
		owner = &in.IdentityID
	}
	c, err := model.NewComplaint(in.Name, in.Email, in.Phone, in.Subject, in.Message, owner)
	if err != nil {
		return nil, err
	}
	if err := u.complaints.Save(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("complaint_id", c.ID).Bool("guest", owner == nil).Msg("complaint filed")
	return c, nil
}

// ListMine pages the caller's complaints newest first. page is 1-based.
func (u *helpUC) ListMine(ctx context.Context, identityID string, page, limit int) ([]*model.Complaint, int, error) {
	defer logging.TraceDuration(u.log, "HelpUC.ListMine")()

	if page < 1 {
		page = 1
	}
	if page > maxComplaintPage {
		return nil, 0, domain.NewError(domain.ErrValidation, "page is out of range")
	}
	if limit <= 0 {
		limit = defaultComplaintLimit
	}
	if limit > maxComplaintLimit {
		limit = maxComplaintLimit
	}
	return u.complaints.ListByIdentity(ctx, repository.NoTX, identityID, (page-1)*limit, limit)
}
