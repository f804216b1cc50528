package domain

import (
	"strings"
	"time"
)

// User is the identity attached to a request. The email comes from the
// authenticating proxy (or a verified bearer token) and is never checked here.
// swagger:model User
type User struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// NormalizeEmail trims and lower-cases an email so comparisons are stable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser builds the request identity; adminEmail is compared after normalization.
func NewUser(email, adminEmail string) *User {
	email = NormalizeEmail(email)
	admin := NormalizeEmail(adminEmail)
	return &User{
		Email:   email,
		IsAdmin: admin != "" && email == admin,
	}
}

// DisplayName strips the configured domain suffix, e.g. "@example.com".
func DisplayName(email, suffix string) string {
	if suffix == "" {
		return email
	}
	if trimmed, ok := strings.CutSuffix(email, strings.ToLower(suffix)); ok && trimmed != "" {
		return trimmed
	}
	return email
}

// TokenIssuer issues signed identity tokens (used by tooling and tests).
type TokenIssuer interface {
	Issue(email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a bearer token and returns the email it was issued for.
type TokenVerifier interface {
	Verify(token string) (email string, err error)
}
