package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Codesplay12/Taskify/internal/domain"
)

// Claims is the verified payload of a bearer token. Role is informational
// only; authorization re-derives the role from the stored user record.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. ttl <= 0 defaults to 7 days.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for user: subject = user id, a fresh jti so the token
// can be individually revoked on logout.
func (i *TokenIssuer) Issue(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token for user %s: %w", user.ID, err)
	}
	return signed, nil
}

// Verify parses and validates a raw token, returning its claims.
// Any failure surfaces as InvalidCredentialError with no further detail.
func (i *TokenIssuer) Verify(raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &domain.InvalidCredentialError{Reason: "token expired"}
		}
		return nil, &domain.InvalidCredentialError{Reason: "token verification failed"}
	}
	if !token.Valid || claims.Subject == "" {
		return nil, &domain.InvalidCredentialError{Reason: "token verification failed"}
	}
	return &claims, nil
}
