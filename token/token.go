// Package token inspects bearer tokens on the client side without
// verifying them. The backend is the only party holding signing keys; the
// client decodes claims purely to annotate telemetry (an expired token will
// be rejected server-side anyway) and to recover a role hint when the login
// response carried none.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT reports a token that does not decode as a JWT. Opaque tokens
// are legal; callers treat this as "no claims available", not a failure.
var ErrNotJWT = errors.New("token is not a decodable jwt")

// Claims is the subset of registered and private claims the portal reads.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time // zero when the token carries no expiry
}

type portalClaims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Inspect decodes the claims of raw without signature verification.
func Inspect(raw string) (Claims, error) {
	var pc portalClaims
	if _, _, err := parser.ParseUnverified(raw, &pc); err != nil {
		return Claims{}, errors.Join(ErrNotJWT, err)
	}

	c := Claims{Subject: pc.Subject, Role: pc.Role}
	if c.Role == "" && len(pc.Roles) > 0 {
		c.Role = pc.Roles[0]
	}
	if pc.ExpiresAt != nil {
		c.ExpiresAt = pc.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether raw is a JWT whose expiry has passed. Opaque
// tokens and tokens without an exp claim are never considered expired.
func Expired(raw string, now time.Time) bool {
	c, err := Inspect(raw)
	if err != nil || c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt)
}
