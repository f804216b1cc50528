package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "hackomatic/internal/delivery/http/helpers"
	"hackomatic/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

// EmailHeader is set by the authenticating reverse proxy.
const EmailHeader = "X-Email"

// SetUser returns a context carrying the request identity.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the request identity, if present.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok && u != nil
}

// IdentityConfig controls how RequireUser resolves the caller.
type IdentityConfig struct {
	AdminEmail string
	// Verifier enables "Authorization: Bearer" tokens; nil disables them.
	Verifier domain.TokenVerifier
	// UnsafeDefaultEmail is used when no identity is supplied. Development only.
	UnsafeDefaultEmail string
}

// RequireUser returns a wrapper that resolves the caller from the X-Email
// header, then a bearer token, then the configured default email, and sets it
// in the request context. Without an identity it responds with 401.
func RequireUser(cfg IdentityConfig, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	if cfg.UnsafeDefaultEmail != "" {
		logger.Warn("UNSAFE_DEFAULT_EMAIL is set; unauthenticated requests act as that user", "email", cfg.UnsafeDefaultEmail)
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			email, ok := resolveEmail(w, r, cfg)
			if !ok {
				return
			}
			user := domain.NewUser(email, cfg.AdminEmail)
			next(w, r.WithContext(SetUser(r.Context(), user)))
		}
	}
}

func resolveEmail(w http.ResponseWriter, r *http.Request, cfg IdentityConfig) (string, bool) {
	if email := strings.TrimSpace(r.Header.Get(EmailHeader)); email != "" {
		return email, true
	}
	if auth := r.Header.Get("Authorization"); auth != "" && cfg.Verifier != nil {
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
			return "", false
		}
		token := strings.TrimSpace(auth[len(prefix):])
		if token == "" {
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
			return "", false
		}
		email, err := cfg.Verifier.Verify(token)
		if err != nil {
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
			return "", false
		}
		return email, true
	}
	if cfg.UnsafeDefaultEmail != "" {
		return cfg.UnsafeDefaultEmail, true
	}
	h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing identity")
	return "", false
}
