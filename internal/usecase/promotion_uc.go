package usecase

import (
	"context"
	"fmt"
	"path"
	"sort"
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
var _ PromotionUseCase = (*promotionUC)(nil)

type PromotionUseCase interface {
	ListActive(ctx context.Context) ([]*model.Promotion, error)
	ListAll(ctx context.Context) ([]*model.Promotion, error)
	Create(ctx context.Context, in PromotionInput, image *ImageUpload) (*model.Promotion, error)
	Update(ctx context.Context, id string, in PromotionInput, image *ImageUpload) (*model.Promotion, error)
	Delete(ctx context.Context, id string) error
}

// PromotionInput carries banner fields. On Update nil fields are left unchanged and an
// empty optional text clears it.
type PromotionInput struct {
	Title       *string
	Description *string
	StartAt     *time.Time
	EndAt       *time.Time
	CTAType     *string
	CTAValue    *string
	CTALabel    *string
	CTAMessage  *string
	RemoveImage bool
}

type promotionUC struct {
	promotions repository.PromotionRepository
	images     adapter.ImageStore
	tm         repository.TransactionManager
	log        *zerolog.Logger
	now        func() time.Time
}

// NewPromotionUseCase wires the banner catalogue. images may be nil, in which case
// uploads are rejected.
func NewPromotionUseCase(promotions repository.PromotionRepository, images adapter.ImageStore, tm repository.TransactionManager, logger *zerolog.Logger) *promotionUC {
	return &promotionUC{promotions: promotions, images: images, tm: tm, log: logger, now: time.Now}
}

// WithClock replaces the time source.
func (u *promotionUC) WithClock(now func() time.Time) *promotionUC {
	u.now = now
	return u
}

func (u *promotionUC) ListActive(ctx context.Context) ([]*model.Promotion, error) {
	defer logging.TraceDuration(u.log, "PromotionUC.ListActive")()

	now := u.now()
	ps, err := u.promotions.ListActive(ctx, repository.NoTX, now, model.StartOfDay(now))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].StartAt.After(ps[j].StartAt) })
	return ps, nil
}

func (u *promotionUC) ListAll(ctx context.Context) ([]*model.Promotion, error) {
	defer logging.TraceDuration(u.log, "PromotionUC.ListAll")()
	return u.promotions.ListAll(ctx, repository.NoTX)
}

func (u *promotionUC) Create(ctx context.Context, in PromotionInput, image *ImageUpload) (*model.Promotion, error) {
	defer logging.TraceDuration(u.log, "PromotionUC.Create")()

	var (
		title, desc string
		start, end  time.Time
	)
	if in.Title != nil {
		title = *in.Title
	}
	if in.Description != nil {
		desc = *in.Description
	}
	if in.StartAt != nil {
		start = *in.StartAt
	}
	if in.EndAt != nil {
		end = *in.EndAt
	}
	p, err := model.NewPromotion(title, desc, start, end)
	if err != nil {
		return nil, err
	}
	if err := applyCTA(p, in); err != nil {
		return nil, err
	}
	p.CreatedAt = u.now()
	p.UpdatedAt = p.CreatedAt

	if image != nil {
		url, err := u.upload(ctx, p.ID, image)
		if err != nil {
			return nil, err
		}
		p.ImageURL = &url
	}
	if err := u.promotions.Save(ctx, repository.NoTX, p); err != nil {
		if p.ImageURL != nil {
			u.discard(ctx, p.ID, *p.ImageURL)
		}
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("promotion_id", p.ID).Msg("promotion created")
	return p, nil
}

func (u *promotionUC) Update(ctx context.Context, id string, in PromotionInput, image *ImageUpload) (*model.Promotion, error) {
	defer logging.TraceDuration(u.log, "PromotionUC.Update")()

	var newURL string
	if image != nil {
		url, err := u.upload(ctx, id, image)
		if err != nil {
			return nil, err
		}
		newURL = url
	}

	var (
		p      *model.Promotion
		oldURL *string
	)
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.promotions.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Title != nil {
			cur.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			cur.Description = strings.TrimSpace(*in.Description)
		}
		if in.StartAt != nil {
			cur.StartAt = *in.StartAt
		}
		if in.EndAt != nil {
			cur.EndAt = *in.EndAt
		}
		if err := cur.Validate(); err != nil {
			return err
		}
		if err := applyCTA(cur, in); err != nil {
			return err
		}
		switch {
		case newURL != "":
			oldURL = cur.ImageURL
			cur.ImageURL = &newURL
		case in.RemoveImage:
			oldURL = cur.ImageURL
			cur.ImageURL = nil
		}
		cur.UpdatedAt = u.now()
		if err := u.promotions.Update(ctx, tx, cur); err != nil {
			return err
		}
		p = cur
		return nil
	})
	if err != nil {
		if newURL != "" {
			u.discard(ctx, id, newURL)
		}
		return nil, err
	}
	if oldURL != nil {
		u.discard(ctx, id, *oldURL)
	}
	return p, nil
}

// Delete removes the promotion. Its image is removed best-effort afterwards.
func (u *promotionUC) Delete(ctx context.Context, id string) error {
	defer logging.TraceDuration(u.log, "PromotionUC.Delete")()

	var imageURL *string
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.promotions.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		imageURL = p.ImageURL
		return u.promotions.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	if imageURL != nil {
		u.discard(ctx, id, *imageURL)
	}
	logging.With(ctx, u.log).Info().Str("promotion_id", id).Msg("promotion deleted")
	return nil
}

func applyCTA(p *model.Promotion, in PromotionInput) error {
	if in.CTAType != nil {
		t, err := model.ParseCTAType(*in.CTAType)
		if err != nil {
			return err
		}
		p.CTAType = t
	}
	if in.CTAValue != nil {
		p.CTAValue = model.OptionalText(*in.CTAValue)
	}
	if in.CTALabel != nil {
		p.CTALabel = model.OptionalText(*in.CTALabel)
	}
	if in.CTAMessage != nil {
		p.CTAMessage = model.OptionalText(*in.CTAMessage)
	}
	return nil
}

func (u *promotionUC) upload(ctx context.Context, id string, img *ImageUpload) (string, error) {
	if u.images == nil {
		return "", domain.NewError(domain.ErrConfiguration, "image storage is not configured")
	}
	key := fmt.Sprintf("promotions/%s/%s%s", id, strings.ToLower(ulid.Make().String()), path.Ext(img.Filename))
	return u.images.Upload(ctx, key, img.ContentType, img.Body, img.Size)
}

func (u *promotionUC) discard(ctx context.Context, id, url string) {
	if u.images == nil {
		return
	}
	if err := u.images.Delete(context.WithoutCancel(ctx), url); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Str("promotion_id", id).Msg("failed to delete promotion image")
	}
}
