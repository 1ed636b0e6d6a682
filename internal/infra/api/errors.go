package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/infra/logging"
)

type errorBody struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	TraceID string `json:"traceId,omitempty"`
}

type okBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var kindStatus = map[error]struct {
	status int
	name   string
}{
	domain.ErrValidation:          {http.StatusBadRequest, "validation"},
	domain.ErrVerification:        {http.StatusBadRequest, "verification"},
	domain.ErrInsufficientBalance: {http.StatusBadRequest, "insufficient_balance"},
	domain.ErrAuthentication:      {http.StatusUnauthorized, "authentication"},
	domain.ErrAuthorization:       {http.StatusForbidden, "authorization"},
	domain.ErrNotFound:            {http.StatusNotFound, "not_found"},
	domain.ErrConflict:            {http.StatusConflict, "conflict"},
	domain.ErrRateLimited:         {http.StatusTooManyRequests, "rate_limited"},
	domain.ErrUpstreamGateway:     {http.StatusBadGateway, "upstream"},
	domain.ErrConfiguration:       {http.StatusServiceUnavailable, "configuration"},
}

// statusOf maps err to an HTTP status and a stable kind name. Unclassified errors are 500.
func statusOf(err error) (int, string) {
	if k := domain.KindOf(err); k != nil {
		s := kindStatus[k]
		return s.status, s.name
	}
	if errors.Is(err, domain.ErrInvalidArgument) {
		return http.StatusBadRequest, "validation"
	}
	return http.StatusInternalServerError, "internal"
}

// publicMessage never exposes driver or upstream causes, only messages use cases chose.
func publicMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) && de.Msg != "" {
		return de.Msg
	}
	if k := domain.KindOf(err); k != nil {
		return k.Error()
	}
	if errors.Is(err, domain.ErrInvalidArgument) {
		return domain.ErrInvalidArgument.Error()
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, okBody{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusOf(err)
	writeJSON(w, status, errorBody{
		Kind:    kind,
		Message: publicMessage(err),
		TraceID: logging.TraceID(r.Context()),
	})
}
