package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/infra/logging"
)

// ===== Identity bearer tokens =====

type IdentityClaims struct {
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token whose subject is the identity id.
func (m *TokenManager) Issue(identityID string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

var errInvalidToken = errors.New("invalid token")

// Parse returns the identity id carried by a valid, unexpired token.
func (m *TokenManager) Parse(tok string) (string, error) {
	claims := &IdentityClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, bool) {
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(hdr[7:])
	return tok, tok != ""
}

// ===== Request identity =====

type ctxKey struct{}

func withIdentity(ctx context.Context, id string) context.Context {
	ctx = logging.WithIdentityID(ctx, id)
	return context.WithValue(ctx, ctxKey{}, id)
}

func identityFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// RequireIdentity rejects requests without a valid bearer token.
func RequireIdentity(tm *TokenManager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r)
			if !ok {
				writeError(w, r, domain.NewError(domain.ErrAuthentication, "login required"))
				return
			}
			id, err := tm.Parse(tok)
			if err != nil {
				writeError(w, r, domain.NewError(domain.ErrAuthentication, "invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

// OptionalIdentity attaches the identity when a valid token is present and treats
// everything else as a guest.
func OptionalIdentity(tm *TokenManager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok, ok := bearerToken(r); ok {
				if id, err := tm.Parse(tok); err == nil {
					r = r.WithContext(withIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin checks the static admin API key sent as X-Admin-Key or a bearer token.
// An unconfigured key closes the admin surface.
func RequireAdmin(apiKey string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				writeError(w, r, domain.NewError(domain.ErrAuthorization, "admin access is disabled"))
				return
			}
			key := r.Header.Get("X-Admin-Key")
			if key == "" {
				key, _ = bearerToken(r)
			}
			if key == "" {
				writeError(w, r, domain.NewError(domain.ErrAuthentication, "admin key required"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				writeError(w, r, domain.NewError(domain.ErrAuthorization, "forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
