// Package auth verifies the bearer tokens issued by the external auth
// service. Tokens are never issued or refreshed here; Sign exists for
// tests and local tooling only.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chatwire/relay/src/types"
)

var (
	// ErrMalformed is returned when the token cannot be parsed.
	ErrMalformed = errors.New("token is malformed")
	// ErrExpired is returned when the token has expired.
	ErrExpired = errors.New("token has expired")
	// ErrSignature is returned when the signature check fails.
	ErrSignature = errors.New("token signature is invalid")
)

// Claims is the JWT claim set carried by a relay token.
type Claims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens into identity claims. It holds no
// state beyond the secret and is safe for concurrent use.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for tokens signed with the given secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the token and returns the identity it asserts. It never
// panics on untrusted input; every failure maps to one of the package
// sentinels.
func (v *Verifier) Verify(tokenString string) (*types.Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSignature
		}
		return v.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignature
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	identity := &types.Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// Sign issues a token for the given identity, valid for ttl. Used by
// tests; production tokens come from the external auth service.
func (v *Verifier) Sign(identity types.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   identity.UserID,
		Email:    identity.Email,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
