// Package auth is the identity side of the app: who is making this request?
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User visits /auth/github → redirected to GitHub
// 2. GitHub calls back /auth/github/callback with a code
// 3. Server exchanges the code for the GitHub profile (GitHubProvider)
// 4. Server finds or creates the user and issues a session JWT (TokenService),
//    stored in the HttpOnly "session" cookie
// 5. On every gated request, SessionResolver reads the cookie, validates the
//    JWT and loads the user; RequireAuthenticated puts it in the context
//
// WHY JWT FOR THE SESSION?
// The token carries the internal user ID and an expiry, signed with HMAC. The
// server keeps no session table: validating a request needs only the key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookieName is the cookie that carries the session JWT.
	SessionCookieName = "session"

	// DefaultSessionTTL applies when the configured TTL is zero or negative.
	DefaultSessionTTL = 24 * time.Hour

	issuer = "click-counter"
)

// TokenService handles session token creation and validation.
type TokenService struct {
	key []byte
	ttl time.Duration
}

// NewTokenService creates a TokenService.
//
// The secret must be at least 16 characters; the signing key itself is
// derived from it with HKDF (see deriveKey).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}

	key, err := deriveKey(secret, "session-token")
	if err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &TokenService{key: key, ttl: ttl}, nil
}

// TTL is how long issued tokens live. Handlers use it for the cookie MaxAge.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. "sub" holds the internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a session token for userID with the configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime.
// Tests use a negative duration to produce an already-expired token.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token and returns the user ID in "sub".
//
// The jwt library checks the signature, expiry and issuer. Pinning the valid
// methods to HS256 blocks the "alg: none" / algorithm-confusion trick.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.key, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
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
