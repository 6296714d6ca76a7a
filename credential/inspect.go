package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info describes what can be read from a credential without verifying it.
type Info struct {
	JWT       bool
	Subject   string
	Issuer    string
	ExpiresAt time.Time // zero when the token has no exp claim
}

// Expired reports whether the token carries an exp claim in the past.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect decodes JWT claims without checking the signature; the server stays
// the authority. Opaque tokens yield Info{JWT: false}.
func Inspect(token string) Info {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Info{}
	}
	info := Info{JWT: true, Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}
