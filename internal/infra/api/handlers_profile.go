package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	"listing-marketplace/internal/usecase"
)

const (
	kindService = model.ProfileKindService
	kindShop    = model.ProfileKindShop

	maxImageSize     = 5 << 20
	maxMultipartBody = model.MaxProfileImages*maxImageSize + 1<<20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type profileRequest struct {
	Name            string                        `json:"name" validate:"omitempty,max=120"`
	ServiceProvided string                        `json:"serviceProvided" validate:"omitempty,max=200"`
	Address         *string                       `json:"address" validate:"omitempty,max=300"`
	WhatsappNumber  *string                       `json:"whatsappNumber" validate:"omitempty,min=7,max=20"`
	State           string                        `json:"state" validate:"omitempty,max=80"`
	District        string                        `json:"district" validate:"omitempty,max=80"`
	City            string                        `json:"city" validate:"omitempty,max=80"`
	Pincode         string                        `json:"pincode" validate:"omitempty,numeric,len=6"`
	OpeningHours    map[string]model.OpeningHours `json:"openingHours"`
	Status          *string                       `json:"status" validate:"omitempty,oneof=enabled disabled"`
}

func (p profileRequest) input() usecase.ProfileInput {
	in := usecase.ProfileInput{
		Name:            p.Name,
		ServiceProvided: p.ServiceProvided,
		Address:         p.Address,
		WhatsappNumber:  p.WhatsappNumber,
		Location: model.Location{
			State:    p.State,
			District: p.District,
			City:     p.City,
			Pincode:  p.Pincode,
		},
		OpeningHours: p.OpeningHours,
	}
	if p.Status != nil {
		st := model.ProfileStatus(*p.Status)
		in.Status = &st
	}
	return in
}

// ownerProfileView is what the owner sees of their own profile.
type ownerProfileView struct {
	model.PublicProfile
	Status            model.ProfileStatus `json:"status"`
	SubscriptionStart *time.Time          `json:"subscriptionStartDate,omitempty"`
	BoostExpiresAt    *time.Time          `json:"boostExpiresAt,omitempty"`
}

type profileResultView struct {
	Profile     ownerProfileView `json:"profile"`
	GrantUsed   bool             `json:"subscriptionApplied"`
	ImageErrors []string         `json:"imageErrors,omitempty"`
}

func toOwnerView(p *model.Profile) ownerProfileView {
	return ownerProfileView{
		PublicProfile:     model.ToPublicView(p, model.Viewer{IdentityID: p.OwnerID, Authenticated: true}, time.Now()),
		Status:            p.Status,
		SubscriptionStart: p.Window.StartAt,
		BoostExpiresAt:    p.BoostExpiresAt,
	}
}

// readProfileForm accepts either a JSON body or a multipart form with an "images" part.
// The returned closer releases the uploaded files.
func (s *Server) readProfileForm(w http.ResponseWriter, r *http.Request) (profileRequest, []usecase.ImageUpload, func(), error) {
	var req profileRequest
	noop := func() {}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		err := s.decode(w, r, &req)
		return req, nil, noop, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return req, nil, noop, domain.NewError(domain.ErrValidation, "invalid multipart form")
	}
	form := r.MultipartForm
	val := func(name string) string {
		if v := form.Value[name]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	opt := func(name string) *string {
		if v, ok := form.Value[name]; ok && len(v) > 0 {
			trimmed := strings.TrimSpace(v[0])
			return &trimmed
		}
		return nil
	}
	req = profileRequest{
		Name:            val("name"),
		ServiceProvided: val("serviceProvided"),
		Address:         opt("address"),
		WhatsappNumber:  opt("whatsappNumber"),
		State:           val("state"),
		District:        val("district"),
		City:            val("city"),
		Pincode:         val("pincode"),
		Status:          opt("status"),
	}
	if raw := val("openingHours"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.OpeningHours); err != nil {
			return req, nil, noop, domain.NewError(domain.ErrValidation, "openingHours must be a JSON object")
		}
	}
	if err := s.check(&req); err != nil {
		return req, nil, noop, err
	}

	files := form.File["images"]
	if len(files) > model.MaxProfileImages {
		return req, nil, noop, domain.NewError(domain.ErrValidation, fmt.Sprintf("at most %d images are allowed", model.MaxProfileImages))
	}
	var (
		uploads []usecase.ImageUpload
		opened  []io.Closer
	)
	closeAll := func() {
		for _, c := range opened {
			_ = c.Close()
		}
		_ = form.RemoveAll()
	}
	for _, fh := range files {
		img, f, err := openImage(fh)
		if err != nil {
			closeAll()
			return req, nil, noop, err
		}
		opened = append(opened, f)
		uploads = append(uploads, img)
	}
	return req, uploads, closeAll, nil
}

// openImage checks type and size of one uploaded file and opens it.
func openImage(fh *multipart.FileHeader) (usecase.ImageUpload, io.Closer, error) {
	ct := fh.Header.Get("Content-Type")
	if !allowedImageTypes[ct] {
		return usecase.ImageUpload{}, nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("%s: only jpeg, png, gif and webp images are allowed", fh.Filename))
	}
	if fh.Size > maxImageSize {
		return usecase.ImageUpload{}, nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("%s: images must be at most 5MB", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return usecase.ImageUpload{}, nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("%s: unreadable upload", fh.Filename))
	}
	return usecase.ImageUpload{Filename: fh.Filename, ContentType: ct, Size: fh.Size, Body: f}, f, nil
}

func (s *Server) handleProfileRegister(kind model.ProfileKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, images, done, err := s.readProfileForm(w, r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		defer done()
		res, err := s.deps.Profiles.Register(r.Context(), mustIdentity(r), kind, req.input(), images)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeOK(w, http.StatusCreated, "profile registered", profileResultView{
			Profile:     toOwnerView(res.Profile),
			GrantUsed:   res.GrantUsed,
			ImageErrors: res.ImageErrors,
		})
	}
}

func (s *Server) handleProfileUpdate(kind model.ProfileKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, images, done, err := s.readProfileForm(w, r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		defer done()
		res, err := s.deps.Profiles.Update(r.Context(), mustIdentity(r), kind, req.input(), images)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeOK(w, http.StatusOK, "profile updated", profileResultView{
			Profile:     toOwnerView(res.Profile),
			ImageErrors: res.ImageErrors,
		})
	}
}

func (s *Server) handleProfileMine(kind model.ProfileKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.deps.Profiles.Mine(r.Context(), mustIdentity(r), kind)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeOK(w, http.StatusOK, "", toOwnerView(p))
	}
}

func (s *Server) handleListProfiles(kind model.ProfileKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, err := pageParams(r, 20)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		f := repository.ProfileFilter{Kind: kind, Limit: limit, Offset: (page - 1) * limit}
		for name, dst := range map[string]*string{
			"state":    &f.State,
			"district": &f.District,
			"city":     &f.City,
			"pincode":  &f.Pincode,
			"q":        &f.Query,
		} {
			if *dst, err = queryString(r, name); err != nil {
				s.fail(w, r, err)
				return
			}
		}
		items, err := s.deps.Profiles.List(r.Context(), f, viewerOf(r))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeOK(w, http.StatusOK, "", map[string]any{
			"items": items,
			"page":  page,
			"limit": limit,
		})
	}
}

func (s *Server) handleGetProfile(kind model.ProfileKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.deps.Profiles.Get(r.Context(), kind, chi.URLParam(r, "id"), viewerOf(r))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeOK(w, http.StatusOK, "", p)
	}
}

// adminProfileView is the unfiltered admin row, paid or not.
type adminProfileView struct {
	ownerProfileView
	OwnerID   string    `json:"ownerId"`
	Listed    bool      `json:"listed"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleAdminListProfiles(kind model.ProfileKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, err := pageParams(r, 50)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		f := repository.ProfileFilter{Kind: kind, Limit: limit, Offset: (page - 1) * limit}
		if f.City, err = queryString(r, "city"); err != nil {
			s.fail(w, r, err)
			return
		}
		items, total, err := s.deps.Profiles.AdminList(r.Context(), f)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		now := time.Now()
		out := make([]adminProfileView, 0, len(items))
		for _, p := range items {
			out = append(out, adminProfileView{
				ownerProfileView: toOwnerView(p),
				OwnerID:          p.OwnerID,
				Listed:           p.Listed(now),
				CreatedAt:        p.CreatedAt,
			})
		}
		writeOK(w, http.StatusOK, "", map[string]any{
			"items": out,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}
