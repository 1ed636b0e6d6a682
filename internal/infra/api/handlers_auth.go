package api

import (
	"net/http"
	"time"

	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/infra/metrics"
	"listing-marketplace/internal/usecase"
)

type registerRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required_without=Phone,omitempty,email"`
	Phone        string `json:"phoneNumber" validate:"required_without=Email,omitempty,min=7,max=20"`
	Password     string `json:"password" validate:"required,min=6,max=72"`
	ReferralCode string `json:"referralCode" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Phone      string `json:"phoneNumber"`
	Password   string `json:"password" validate:"required"`
}

type identityView struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            *string    `json:"email,omitempty"`
	Phone            *string    `json:"phoneNumber,omitempty"`
	ServiceProfileID *string    `json:"serviceProviderId,omitempty"`
	ShopProfileID    *string    `json:"shopId,omitempty"`
	GoldBalance      int64      `json:"goldCoins"`
	IsPremium        bool       `json:"isPremium"`
	AdFreeUntil      *time.Time `json:"adFreeUntil,omitempty"`
	ReferralCode     *string    `json:"referralCode,omitempty"`
	ReferralBalance  string     `json:"referralBalance"`
}

type sessionView struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      identityView `json:"user"`
}

func toIdentityView(id *model.Identity) identityView {
	return identityView{
		ID:               id.ID,
		Name:             id.Name,
		Email:            id.Email,
		Phone:            id.Phone,
		ServiceProfileID: id.ServiceProfileID,
		ShopProfileID:    id.ShopProfileID,
		GoldBalance:      id.GoldBalance,
		IsPremium:        id.IsPremium,
		AdFreeUntil:      id.AdFreeUntil,
		ReferralCode:     id.ReferralCode,
		ReferralBalance:  id.ReferralBalance.StringFixed(2),
	}
}

func (s *Server) session(id *model.Identity) (*sessionView, error) {
	tok, exp, err := s.deps.Tokens.Issue(id.ID)
	if err != nil {
		return nil, err
	}
	return &sessionView{Token: tok, ExpiresAt: exp, User: toIdentityView(id)}, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.deps.Auth.Register(r.Context(), usecase.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	metrics.IncIdentitiesRegistered()
	sess, err := s.session(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "registered successfully", sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		identifier = req.Phone
	}
	id, err := s.deps.Auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.session(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "logged in", sess)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, err := s.deps.Auth.Me(r.Context(), mustIdentity(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", toIdentityView(id))
}

type changePasswordRequest struct {
	Current string `json:"currentPassword" validate:"required"`
	Next    string `json:"newPassword" validate:"required,min=6,max=72"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.Auth.ChangePassword(r.Context(), mustIdentity(r), req.Current, req.Next); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "password changed", nil)
}
