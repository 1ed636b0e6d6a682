package api

import (
	"net/http"
	"time"

	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/usecase"
)

type complaintRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required_without=Phone,omitempty,email"`
	Phone   string `json:"phoneNumber" validate:"required_without=Email,omitempty,min=7,max=20"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type complaintView struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Email     *string               `json:"email,omitempty"`
	Phone     *string               `json:"phoneNumber,omitempty"`
	Subject   string                `json:"subject"`
	Message   string                `json:"message"`
	Status    model.ComplaintStatus `json:"status"`
	CreatedAt time.Time             `json:"createdAt"`
}

func toComplaintView(c *model.Complaint) complaintView {
	return complaintView{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Subject:   c.Subject,
		Message:   c.Message,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
	}
}

// handleSubmitComplaint accepts guests; a signed-in sender is linked to the complaint.
func (s *Server) handleSubmitComplaint(w http.ResponseWriter, r *http.Request) {
	var req complaintRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.deps.Help.Submit(r.Context(), usecase.ComplaintInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Subject:    req.Subject,
		Message:    req.Message,
		IdentityID: mustIdentity(r),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "complaint submitted", toComplaintView(c))
}

func (s *Server) handleMyComplaints(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r, 10)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, total, err := s.deps.Help.ListMine(r.Context(), mustIdentity(r), page, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]complaintView, 0, len(items))
	for _, c := range items {
		out = append(out, toComplaintView(c))
	}
	writeOK(w, http.StatusOK, "", map[string]any{
		"items": out,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}
