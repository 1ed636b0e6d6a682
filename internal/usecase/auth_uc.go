package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/logging"
)

// Compile-time check
var _ AuthUseCase = (*authUC)(nil)

// AuthUseCase owns identity registration and credential checks. Token issuance is left
// to the transport layer.
type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*model.Identity, error)
	Login(ctx context.Context, identifier, password string) (*model.Identity, error)
	Me(ctx context.Context, identityID string) (*model.Identity, error)
	ChangePassword(ctx context.Context, identityID, current, next string) error
}

type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	ReferralCode string
}

const minPasswordLen = 6

type authUC struct {
	identities repository.IdentityRepository
	tm         repository.TransactionManager
	log        *zerolog.Logger
	cost       int
}

func NewAuthUseCase(identities repository.IdentityRepository, tm repository.TransactionManager, logger *zerolog.Logger) *authUC {
	return &authUC{identities: identities, tm: tm, log: logger, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost (tests use bcrypt.MinCost).
func (u *authUC) WithHashCost(cost int) *authUC {
	u.cost = cost
	return u
}

func (u *authUC) Register(ctx context.Context, in RegisterInput) (*model.Identity, error) {
	defer logging.TraceDuration(u.log, "AuthUC.Register")()

	if len(in.Password) < minPasswordLen {
		return nil, domain.NewError(domain.ErrValidation, "password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.cost)
	if err != nil {
		return nil, err
	}
	id, err := model.NewIdentity(in.Name, in.Email, in.Phone, string(hash))
	if err != nil {
		return nil, err
	}

	err = u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		if id.Email != nil {
			if err := u.ensureFree(u.identities.FindByEmail(ctx, tx, *id.Email)); err != nil {
				return err
			}
		}
		if id.Phone != nil {
			if err := u.ensureFree(u.identities.FindByPhone(ctx, tx, *id.Phone)); err != nil {
				return err
			}
		}
		if code := strings.ToUpper(strings.TrimSpace(in.ReferralCode)); code != "" {
			referrer, err := u.identities.FindByReferralCode(ctx, tx, code)
			switch {
			case err == nil:
				id.ReferredBy = &referrer.ID
			case errors.Is(err, domain.ErrNotFound):
				u.log.Debug().Str("code", code).Msg("unknown referral code ignored")
			default:
				return err
			}
		}
		return u.identities.Save(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (u *authUC) ensureFree(_ *model.Identity, err error) error {
	switch {
	case err == nil:
		return domain.NewError(domain.ErrConflict, "user already exists")
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

// Login accepts an email or a phone number as identifier.
func (u *authUC) Login(ctx context.Context, identifier, password string) (*model.Identity, error) {
	defer logging.TraceDuration(u.log, "AuthUC.Login")()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, domain.NewError(domain.ErrValidation, "email or phone and password are required")
	}
	var (
		id  *model.Identity
		err error
	)
	if strings.Contains(identifier, "@") {
		id, err = u.identities.FindByEmail(ctx, repository.NoTX, strings.ToLower(identifier))
	} else {
		id, err = u.identities.FindByPhone(ctx, repository.NoTX, identifier)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrAuthentication, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)) != nil {
		return nil, domain.NewError(domain.ErrAuthentication, "invalid credentials")
	}
	return id, nil
}

func (u *authUC) Me(ctx context.Context, identityID string) (*model.Identity, error) {
	defer logging.TraceDuration(u.log, "AuthUC.Me")()
	return u.identities.FindByID(ctx, repository.NoTX, identityID)
}

// ChangePassword replaces the hash after checking the current password.
func (u *authUC) ChangePassword(ctx context.Context, identityID, current, next string) error {
	defer logging.TraceDuration(u.log, "AuthUC.ChangePassword")()

	if current == "" || next == "" {
		return domain.NewError(domain.ErrValidation, "current and new passwords are required")
	}
	if len(next) < minPasswordLen {
		return domain.NewError(domain.ErrValidation, "new password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), u.cost)
	if err != nil {
		return err
	}
	err = u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		id, err := u.identities.FindByID(ctx, tx, identityID)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(current)) != nil {
			return domain.NewError(domain.ErrAuthentication, "current password is incorrect")
		}
		id.PasswordHash = string(hash)
		id.UpdatedAt = time.Now()
		return u.identities.Update(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	logging.With(ctx, u.log).Info().Str("identity_id", identityID).Msg("password changed")
	return nil
}
