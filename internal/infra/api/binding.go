package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
)

const maxJSONBody = 1 << 20

// decode reads a JSON body into dst and runs struct validation.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return domain.NewError(domain.ErrValidation, "invalid request body")
	}
	return s.check(dst)
}

func (s *Server) check(dst any) error {
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError reports the first failing field by its JSON name.
func validationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return domain.NewError(domain.ErrValidation, "invalid request")
	}
	fe := ves[0]
	var msg string
	switch fe.Tag() {
	case "required", "required_without":
		msg = fmt.Sprintf("%s is required", fe.Field())
	case "email":
		msg = fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "max", "len":
		msg = fmt.Sprintf("%s must have %s %s", fe.Field(), fe.Tag(), fe.Param())
	default:
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return domain.NewError(domain.ErrValidation, msg)
}

// queryInt binds an optional integer query parameter; absent leaves def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return 0, domain.NewError(domain.ErrValidation, fmt.Sprintf("%s must be an integer", name))
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}

func queryString(r *http.Request, name string) (string, error) {
	var v *string
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return "", domain.NewError(domain.ErrValidation, fmt.Sprintf("%s is invalid", name))
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

// page resolves page/limit into an offset. page is 1-based.
// Paging bounds keep (page-1)*limit far from int overflow.
const (
	maxPage  = 10_000
	maxLimit = 100
)

func pageParams(r *http.Request, defLimit int) (page, limit int, err error) {
	if page, err = queryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", defLimit); err != nil {
		return 0, 0, err
	}
	if page > maxPage {
		return 0, 0, domain.NewError(domain.ErrValidation, fmt.Sprintf("page must be at most %d", maxPage))
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, nil
}

func viewerOf(r *http.Request) model.Viewer {
	id, ok := identityFrom(r.Context())
	return model.Viewer{IdentityID: id, Authenticated: ok}
}

func mustIdentity(r *http.Request) string {
	id, _ := identityFrom(r.Context())
	return id
}
