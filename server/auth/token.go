// Package auth issues and verifies the bearer tokens used across the
// platform family. Tokens are HS256 JWTs compatible with the identity
// service: the subject is the user ID and app metadata carries the
// platforms the user may access.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
)

const (
	// Issuer is written into every token the bridge signs.
	Issuer = "platform-bridge"
	// AccessTokenDuration is the lifetime of an access token.
	AccessTokenDuration = 1 * time.Hour
	// RefreshTokenDuration is the lifetime of a refresh session.
	RefreshTokenDuration = 30 * 24 * time.Hour
)

// ErrInvalidToken is returned for malformed, expired or mis-signed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// AppMetadata mirrors the identity service's app_metadata claim.
type AppMetadata struct {
	Platforms []platform.ID `json:"platforms,omitempty"`
}

// Claims is the bridge's JWT claim set.
type Claims struct {
	Email       string      `json:"email,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// CanAccess reports whether the token grants access to the platform.
// A token without a platform list grants access everywhere, but only
// over the subject's own records; cross-user operations check for an
// explicit admin grant instead.
func (c *Claims) CanAccess(p platform.ID) bool {
	if len(c.AppMetadata.Platforms) == 0 {
		return true
	}
	for _, granted := range c.AppMetadata.Platforms {
		if granted == p {
			return true
		}
	}
	return false
}

// Signer signs and verifies bridge tokens with a shared secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer from the shared JWT secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// GenerateAccessToken signs an access token for the user.
func (s *Signer) GenerateAccessToken(userID, email string, platforms []platform.ID) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:       email,
		AppMetadata: AppMetadata{Platforms: platforms},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenDuration)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return token, nil
}

// Verify parses and validates a token string.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
