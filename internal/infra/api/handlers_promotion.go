package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/infra/metrics"
	"listing-marketplace/internal/usecase"
)

type promotionRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	CTAType     *string `json:"ctaType" validate:"omitempty,max=20"`
	CTAValue    *string `json:"ctaValue" validate:"omitempty,max=300"`
	CTALabel    *string `json:"ctaLabel" validate:"omitempty,max=60"`
	CTAMessage  *string `json:"ctaMessage" validate:"omitempty,max=500"`
	RemoveImage bool    `json:"removeImage"`
}

func (p promotionRequest) input() (usecase.PromotionInput, error) {
	in := usecase.PromotionInput{
		Title:       p.Title,
		Description: p.Description,
		CTAType:     p.CTAType,
		CTAValue:    p.CTAValue,
		CTALabel:    p.CTALabel,
		CTAMessage:  p.CTAMessage,
		RemoveImage: p.RemoveImage,
	}
	var err error
	if in.StartAt, err = parseDate("startDate", p.StartDate); err != nil {
		return in, err
	}
	if in.EndAt, err = parseDate("endDate", p.EndDate); err != nil {
		return in, err
	}
	return in, nil
}

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func parseDate(name string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*v)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.NewError(domain.ErrValidation, name+" must be a date")
}

type promotionView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	StartDate   time.Time      `json:"startDate"`
	EndDate     time.Time      `json:"endDate"`
	ImageURL    *string        `json:"imageUrl"`
	CTAType     *model.CTAType `json:"ctaType"`
	CTAValue    *string        `json:"ctaValue"`
	CTALabel    *string        `json:"ctaLabel"`
	CTAMessage  *string        `json:"ctaMessage"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func toPromotionViews(ps []*model.Promotion) []promotionView {
	out := make([]promotionView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPromotionView(p))
	}
	return out
}

func toPromotionView(p *model.Promotion) promotionView {
	return promotionView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		StartDate:   p.StartAt,
		EndDate:     p.EndAt,
		ImageURL:    p.ImageURL,
		CTAType:     p.CTAType,
		CTAValue:    p.CTAValue,
		CTALabel:    p.CTALabel,
		CTAMessage:  p.CTAMessage,
		CreatedAt:   p.CreatedAt,
	}
}

// readPromotionForm accepts a JSON body or a multipart form with one optional "image" part.
func (s *Server) readPromotionForm(w http.ResponseWriter, r *http.Request) (usecase.PromotionInput, *usecase.ImageUpload, func(), error) {
	var req promotionRequest
	noop := func() {}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		if err := s.decode(w, r, &req); err != nil {
			return usecase.PromotionInput{}, nil, noop, err
		}
		in, err := req.input()
		return in, nil, noop, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return usecase.PromotionInput{}, nil, noop, domain.NewError(domain.ErrValidation, "invalid multipart form")
	}
	form := r.MultipartForm
	opt := func(name string) *string {
		if v, ok := form.Value[name]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	req = promotionRequest{
		Title:       opt("title"),
		Description: opt("description"),
		StartDate:   opt("startDate"),
		EndDate:     opt("endDate"),
		CTAType:     opt("ctaType"),
		CTAValue:    opt("ctaValue"),
		CTALabel:    opt("ctaLabel"),
		CTAMessage:  opt("ctaMessage"),
	}
	if v := opt("removeImage"); v != nil {
		req.RemoveImage, _ = strconv.ParseBool(*v)
	}
	cleanup := func() { _ = form.RemoveAll() }
	if err := s.check(&req); err != nil {
		cleanup()
		return usecase.PromotionInput{}, nil, noop, err
	}
	in, err := req.input()
	if err != nil {
		cleanup()
		return in, nil, noop, err
	}
	files := form.File["image"]
	if len(files) == 0 {
		return in, nil, cleanup, nil
	}
	if len(files) > 1 {
		cleanup()
		return in, nil, noop, domain.NewError(domain.ErrValidation, "only one image is allowed")
	}
	img, f, err := openImage(files[0])
	if err != nil {
		cleanup()
		return in, nil, noop, err
	}
	return in, &img, func() { closeQuietly(f); cleanup() }, nil
}

func closeQuietly(c io.Closer) { _ = c.Close() }

func (s *Server) handleActivePromotions(w http.ResponseWriter, r *http.Request) {
	ps, err := s.deps.Promotions.ListActive(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", toPromotionViews(ps))
}

func (s *Server) handleAllPromotions(w http.ResponseWriter, r *http.Request) {
	ps, err := s.deps.Promotions.ListAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", toPromotionViews(ps))
}

func (s *Server) handleCreatePromotion(w http.ResponseWriter, r *http.Request) {
	in, img, done, err := s.readPromotionForm(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer done()
	p, err := s.deps.Promotions.Create(r.Context(), in, img)
	if err != nil {
		metrics.IncAdminAction("promotion_create", "error")
		s.fail(w, r, err)
		return
	}
	metrics.IncAdminAction("promotion_create", "ok")
	writeOK(w, http.StatusCreated, "promotion created", toPromotionView(p))
}

func (s *Server) handleUpdatePromotion(w http.ResponseWriter, r *http.Request) {
	in, img, done, err := s.readPromotionForm(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer done()
	p, err := s.deps.Promotions.Update(r.Context(), chi.URLParam(r, "id"), in, img)
	if err != nil {
		metrics.IncAdminAction("promotion_update", "error")
		s.fail(w, r, err)
		return
	}
	metrics.IncAdminAction("promotion_update", "ok")
	writeOK(w, http.StatusOK, "promotion updated", toPromotionView(p))
}

func (s *Server) handleDeletePromotion(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Promotions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		metrics.IncAdminAction("promotion_delete", "error")
		s.fail(w, r, err)
		return
	}
	metrics.IncAdminAction("promotion_delete", "ok")
	writeOK(w, http.StatusOK, "promotion deleted", nil)
}
