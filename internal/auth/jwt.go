// Package auth provides JWT session tokens, GitHub OAuth, and password
// hashing for the Debrief API.
//
// SESSION FLOW:
//  1. User signs in — GitHub OAuth or email/password
//  2. Server issues a signed JWT and stores it in an HttpOnly cookie
//  3. Middleware reads the cookie on each request, validates the JWT, and
//     puts the userID in the request context
//
// WHY JWT?
// The token carries everything the server needs (userID, expiry) inside a
// signed payload, so validating a request costs zero database lookups. The
// HMAC signature means nobody can forge or alter a token without the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionLifetime is how long an issued session token stays valid. After
// that the cookie is rejected and the user signs in again.
const sessionLifetime = 24 * time.Hour

// TokenService signs and validates session tokens. It holds the HMAC secret;
// the same secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Use at least 32 bytes of random data in production,
// e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the internal user ID travels in the
// standard "sub" (Subject) claim.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given userID, valid for
// sessionLifetime.
//
// HS256 is symmetric HMAC-SHA256: one secret signs and verifies. Fine for a
// single-server deployment; asymmetric RS256 only pays off when other
// services need to verify tokens without holding the signing key.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, sessionLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Tests use short
// durations to exercise the expiry path without sleeping for a day.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    "debrief",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string, returning the userID from the
// "sub" claim.
//
// Checks performed by the jwt library:
//   - signature is valid for our secret
//   - token is not expired (expiry claim required)
//   - issuer is "debrief" — tokens minted by other apps don't pass
//   - algorithm is HS256
//
// Pinning the algorithm matters: without jwt.WithValidMethods an attacker
// could present a token claiming alg "none" and some parsers would accept it.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("debrief"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
