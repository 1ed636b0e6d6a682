package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/adapter"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/infra/logging"
)

// Compile-time check
var _ ProfileUseCase = (*profileUC)(nil)

type ProfileUseCase interface {
	Register(ctx context.Context, identityID string, kind model.ProfileKind, in ProfileInput, images []ImageUpload) (*ProfileResult, error)
	Update(ctx context.Context, identityID string, kind model.ProfileKind, in ProfileInput, images []ImageUpload) (*ProfileResult, error)
	Mine(ctx context.Context, identityID string, kind model.ProfileKind) (*model.Profile, error)
	Get(ctx context.Context, kind model.ProfileKind, id string, viewer model.Viewer) (*model.PublicProfile, error)
	List(ctx context.Context, f repository.ProfileFilter, viewer model.Viewer) ([]model.PublicProfile, error)
	// AdminList returns every profile of f.Kind, paid or not, with the total count.
	AdminList(ctx context.Context, f repository.ProfileFilter) ([]*model.Profile, int, error)
}

// ProfileInput carries descriptive fields. On Update nil/empty fields are left unchanged.
type ProfileInput struct {
	Name            string
	ServiceProvided string
	Address         *string
	WhatsappNumber  *string
	Location        model.Location
	OpeningHours    map[string]model.OpeningHours
	Status          *model.ProfileStatus
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProfileResult reports the saved profile; ImageErrors lists uploads that failed after the
// field changes were committed.
type ProfileResult struct {
	Profile     *model.Profile
	GrantUsed   bool
	ImageErrors []string
}

type profileUC struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	images     adapter.ImageStore
	tm         repository.TransactionManager
	log        *zerolog.Logger
	now        func() time.Time
}

// NewProfileUseCase wires the registry. images may be nil, in which case uploads are rejected.
func NewProfileUseCase(identities repository.IdentityRepository, profiles repository.ProfileRepository, images adapter.ImageStore, tm repository.TransactionManager, logger *zerolog.Logger) *profileUC {
	return &profileUC{identities: identities, profiles: profiles, images: images, tm: tm, log: logger, now: time.Now}
}

// WithClock replaces the time source.
func (u *profileUC) WithClock(now func() time.Time) *profileUC {
	u.now = now
	return u
}

func (u *profileUC) Register(ctx context.Context, identityID string, kind model.ProfileKind, in ProfileInput, images []ImageUpload) (*ProfileResult, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.Register")()

	if len(images) > model.MaxProfileImages {
		return nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("at most %d images are allowed", model.MaxProfileImages))
	}
	res := &ProfileResult{}
	now := u.now()
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		id, err := u.identities.FindByID(ctx, tx, identityID)
		if err != nil {
			return err
		}
		if p := id.ProfileID(kind); p != nil && *p != "" {
			return domain.NewError(domain.ErrConflict, "profile already exists for this user")
		}
		if kind == model.ProfileKindShop && id.Phone == nil {
			return domain.NewError(domain.ErrValidation, "a phone number is required to register a shop")
		}
		p, err := model.NewProfile(kind, id.ID, in.Name, in.Location)
		if err != nil {
			return err
		}
		p.Phone = id.Phone
		p.Address = in.Address
		p.WhatsappNumber = in.WhatsappNumber
		if kind == model.ProfileKindService {
			p.ServiceProvided = strings.TrimSpace(in.ServiceProvided)
			if p.ServiceProvided == "" {
				return domain.NewError(domain.ErrValidation, "service provided is required")
			}
		} else {
			p.OpeningHours = model.NormalizeOpeningHours(in.OpeningHours)
		}
		res.GrantUsed = model.ConsumeStagedGrant(id, p, now)
		if err := u.profiles.Save(ctx, tx, p); err != nil {
			return err
		}
		if kind == model.ProfileKindShop {
			id.ShopProfileID = &p.ID
		} else {
			id.ServiceProfileID = &p.ID
		}
		id.UpdatedAt = now
		if err := u.identities.Update(ctx, tx, id); err != nil {
			return err
		}
		res.Profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.GrantUsed {
		logging.With(ctx, u.log).Info().Str("profile_id", res.Profile.ID).Msg("staged subscription applied to new profile")
	}
	res.ImageErrors = u.attachImages(ctx, res.Profile, images)
	return res, nil
}

func (u *profileUC) Update(ctx context.Context, identityID string, kind model.ProfileKind, in ProfileInput, images []ImageUpload) (*ProfileResult, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.Update")()

	res := &ProfileResult{}
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.profiles.FindByOwner(ctx, tx, kind, identityID)
		if err != nil {
			return err
		}
		if len(p.Images)+len(images) > model.MaxProfileImages {
			return domain.NewError(domain.ErrValidation, fmt.Sprintf("at most %d images are allowed", model.MaxProfileImages))
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			p.Name = name
		}
		if s := strings.TrimSpace(in.ServiceProvided); s != "" && kind == model.ProfileKindService {
			p.ServiceProvided = s
		}
		if in.Address != nil {
			p.Address = in.Address
		}
		if in.WhatsappNumber != nil {
			p.WhatsappNumber = in.WhatsappNumber
		}
		setIfPresent(&p.Location.State, in.Location.State)
		setIfPresent(&p.Location.District, in.Location.District)
		setIfPresent(&p.Location.City, in.Location.City)
		setIfPresent(&p.Location.Pincode, in.Location.Pincode)
		if in.OpeningHours != nil && kind == model.ProfileKindShop {
			p.OpeningHours = model.NormalizeOpeningHours(in.OpeningHours)
		}
		if in.Status != nil {
			p.Status = *in.Status
		}
		p.UpdatedAt = u.now()
		if err := u.profiles.Update(ctx, tx, p); err != nil {
			return err
		}
		res.Profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.ImageErrors = u.attachImages(ctx, res.Profile, images)
	return res, nil
}

func setIfPresent(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// attachImages uploads best-effort and appends what succeeded. Failures never roll back
// the field changes committed before.
func (u *profileUC) attachImages(ctx context.Context, p *model.Profile, images []ImageUpload) []string {
	if len(images) == 0 {
		return nil
	}
	log := logging.With(ctx, u.log)
	if u.images == nil {
		return []string{"image storage is not configured"}
	}
	var (
		urls []string
		errs []string
	)
	for _, img := range images {
		key := fmt.Sprintf("profiles/%s/%s/%s%s", p.Kind, p.ID, strings.ToLower(ulid.Make().String()), path.Ext(img.Filename))
		url, err := u.images.Upload(ctx, key, img.ContentType, img.Body, img.Size)
		if err != nil {
			log.Warn().Err(err).Str("profile_id", p.ID).Str("file", img.Filename).Msg("image upload failed")
			errs = append(errs, img.Filename+": upload failed")
			continue
		}
		urls = append(urls, url)
	}
	if len(urls) == 0 {
		return errs
	}
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.profiles.FindByID(ctx, tx, p.Kind, p.ID)
		if err != nil {
			return err
		}
		cur.Images = append(cur.Images, urls...)
		if len(cur.Images) > model.MaxProfileImages {
			cur.Images = cur.Images[:model.MaxProfileImages]
		}
		cur.UpdatedAt = u.now()
		if err := u.profiles.Update(ctx, tx, cur); err != nil {
			return err
		}
		*p = *cur
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("profile_id", p.ID).Msg("failed to attach uploaded images")
		errs = append(errs, "failed to save uploaded images")
	}
	return errs
}

func (u *profileUC) Mine(ctx context.Context, identityID string, kind model.ProfileKind) (*model.Profile, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.Mine")()
	return u.profiles.FindByOwner(ctx, repository.NoTX, kind, identityID)
}

func (u *profileUC) Get(ctx context.Context, kind model.ProfileKind, id string, viewer model.Viewer) (*model.PublicProfile, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.Get")()

	p, err := u.profiles.FindByID(ctx, repository.NoTX, kind, id)
	if err != nil {
		return nil, err
	}
	now := u.now()
	if !p.Listed(now) && p.OwnerID != viewer.IdentityID {
		return nil, domain.NewError(domain.ErrNotFound, "listing not found")
	}
	view := model.ToPublicView(p, viewer, now)
	return &view, nil
}

func (u *profileUC) List(ctx context.Context, f repository.ProfileFilter, viewer model.Viewer) ([]model.PublicProfile, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.List")()

	if f.Limit <= 0 || f.Limit > 50 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	now := u.now()
	f.Now = now
	ps, err := u.profiles.ListListed(ctx, repository.NoTX, f)
	if err != nil {
		return nil, err
	}
	out := make([]model.PublicProfile, 0, len(ps))
	for _, p := range ps {
		out = append(out, model.ToPublicView(p, viewer, now))
	}
	return out, nil
}

func (u *profileUC) AdminList(ctx context.Context, f repository.ProfileFilter) ([]*model.Profile, int, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.AdminList")()

	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return u.profiles.ListAll(ctx, repository.NoTX, f)
}
