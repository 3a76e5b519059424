// Package session verifies the bearer tokens issued by the login service.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront-checkout/internal/domain"
)

// Claims carries the user id in the registered subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Enabled reports whether a signing secret is configured. Without one every
// request is anonymous.
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify parses an HS256 token and returns the session it represents.
func (v *Verifier) Verify(token string) (domain.Session, error) {
	if !v.Enabled() {
		return domain.Session{}, fmt.Errorf("%w: session verification disabled", domain.ErrUnauthenticated)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Session{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Session{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return domain.Session{UserID: claims.Subject, Token: token}, nil
}

// Issue signs a token for userID. Production tokens come from the login
// service; this exists for local tooling and tests.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", errors.New("session secret not configured")
	}
	now := v.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
